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

		collection := core.NewBaseCollection("events")

		collection.Fields.Add(
			&core.TextField{
				Name:     "title",
				Required: true,
			},
			&core.TextField{
				Name: "description",
			},
			&core.DateField{
				Name:     "date",
				Required: true,
			},
			&core.TextField{
				Name: "time",
			},
			&core.TextField{
				Name: "location",
			},
			&core.TextField{
				Name: "category",
			},
			&core.NumberField{
				Name:     "price",
				Required: true,
				Min:      types.Pointer(0.0),
			},
			&core.NumberField{
				Name:     "capacity",
				Required: true,
				Min:      types.Pointer(0.0),
				OnlyInt:  true,
			},
			&core.NumberField{
				Name:    "available_tickets",
				Min:     types.Pointer(0.0),
				OnlyInt: true,
			},
			&core.RelationField{
				Name:         "organizer",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.URLField{
				Name: "image",
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"active", "cancelled", "completed"},
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

		collection.AddIndex("idx_events_organizer", false, "organizer", "")
		collection.AddIndex("idx_events_status", false, "status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
