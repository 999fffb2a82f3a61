package switchboard_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/dsl"
	"github.com/aretw0/switchboard/pkg/edit"
	"github.com/aretw0/switchboard/pkg/session"
)

// Example_editSession opens an editor session on a stored definition, adds a state
// wired from the greeting, and saves the result back to the store.
func Example_editSession() {
	b := dsl.New()
	b.Add("greeting").Prompt("Hello! How can I help?").When("asks about billing", "billing")
	b.Add("billing").Prompt("Let me pull up your invoices.")

	store, err := memory.NewFromDefinitions(map[string]*domain.Definition{
		"support": b.MustBuild(),
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	mgr := session.NewManager(store)

	snap, err := mgr.Open(ctx, "support")
	if err != nil {
		log.Fatal(err)
	}

	_, _, err = mgr.Apply(ctx, snap.ID,
		edit.Command{Op: edit.OpAddState, As: "faq"},
		edit.Command{Op: edit.OpRenameState, State: "$faq", NewName: "faq"},
		edit.Command{Op: edit.OpAddTransition, Source: "greeting", Target: "faq", Description: "has a question"},
	)
	if err != nil {
		log.Fatal(err)
	}

	result, err := mgr.Save(ctx, snap.ID)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("states:", result.Record.Definition.Names())
	fmt.Println("added:", result.Diff.Added)
	fmt.Println("modified:", result.Diff.Modified)

	// Output:
	// states: [greeting billing faq]
	// added: [faq]
	// modified: [greeting]
}
