package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		tickets, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("transactions")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "user",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "ticket",
				Required:     true,
				CollectionId: tickets.Id,
				MaxSelect:    1,
			},
			&core.NumberField{
				Name:     "amount",
				Required: true,
				Min:      types.Pointer(0.0),
			},
			&core.SelectField{
				Name:      "payment_method",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"mpesa", "card", "paypal", "direct"},
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "completed", "failed", "refunded"},
			},
			&core.TextField{
				Name:     "transaction_id",
				Required: true,
			},
			&core.TextField{
				Name: "mpesa_receipt_number",
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)

		collection.AddIndex("idx_transactions_transaction_id", true, "transaction_id", "")
		collection.AddIndex("idx_transactions_user", false, "user", "")
		collection.AddIndex("idx_transactions_status_method", false, "status, payment_method", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("transactions")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
