package main

import (
	"github.com/spf13/cobra"

	"github.com/bindkit-dev/bindkit/pkg/binding"
	"github.com/bindkit-dev/bindkit/pkg/observable"
	"github.com/bindkit-dev/bindkit/pkg/value"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a short binding walkthrough",
		Long: `Create two objects, bind them bidirectionally, and show how
writes on either side propagate, how releasing a binding detaches it,
and how destroying an endpoint severs the link.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
}

func runDemo() error {
	printBanner()

	a, err := observable.New("a",
		observable.Descriptor{Name: "count", Kind: value.Int, Readable: true, Writable: true},
	)
	if err != nil {
		return err
	}
	b, err := observable.New("b",
		observable.Descriptor{Name: "count", Kind: value.Int, Readable: true, Writable: true},
	)
	if err != nil {
		return err
	}

	link, err := binding.Bind(a, "count", b, "count", binding.Bidirectional)
	if err != nil {
		return err
	}
	success("bound a.count <-> b.count")

	show := func(obj *observable.Object) {
		v, _ := obj.Get("count")
		n, _ := v.Int()
		info("%s.count = %d", obj.Name(), n)
	}

	if err := a.Set("count", value.IntVal(10)); err != nil {
		return err
	}
	success("set a.count = 10")
	show(a)
	show(b)

	if err := b.Set("count", value.IntVal(42)); err != nil {
		return err
	}
	success("set b.count = 42")
	show(a)
	show(b)

	link.Release()
	success("released the binding")

	if err := a.Set("count", value.IntVal(7)); err != nil {
		return err
	}
	info("after release, a.count = 7 does not reach b:")
	show(a)
	show(b)

	link2, err := binding.Bind(a, "count", b, "count", binding.Unidirectional)
	if err != nil {
		return err
	}
	a.Destroy()
	if link2.Severed() {
		success("destroying a severed the second binding")
	}
	info("bindings left on b: %d", len(binding.Of(b)))

	return nil
}
