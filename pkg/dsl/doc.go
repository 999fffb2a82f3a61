/*
Package dsl provides a Go DSL for programmatically constructing state-machine definitions.

It allows developers to define conversation flows using a type-safe, fluent builder
instead of hand-writing nested literals or YAML. This is particularly useful for
seeding stores, unit testing, and leveraging IDE autocompletion.

Example usage:

	b := dsl.New()

	b.Add("greeting").
		Prompt("Greet the caller and ask how you can help.").
		When("caller asks about an invoice", "billing")

	b.Add("billing").
		Prompt("Explain the latest invoice.").
		Tools(domain.Tool{"type": "end_call"}).
		Go("greeting")

	def, err := b.Start("greeting").Build()
*/
package dsl
