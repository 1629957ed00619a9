package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("counters")

		collection.Fields.Add(
			&core.TextField{
				Name:     "name",
				Required: true,
			},
			&core.NumberField{
				Name:    "value",
				Min:     types.Pointer(0.0),
				OnlyInt: true,
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

		collection.AddIndex("idx_counters_name", true, "name", "")

		if err := app.Save(collection); err != nil {
			return err
		}

		// Seed the ticket number sequence.
		record := core.NewRecord(collection)
		record.Set("name", "ticket_number")
		record.Set("value", 0)
		return app.Save(record)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("counters")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
