package main

import (
	"perimeter/internal/infra/persistence/model"

	"gorm.io/gen"
)

func main() {
	models := []any{
		model.EventModel{},
		model.ParticipantModel{},
		model.PresenceSnapshotModel{},
		model.AlertModel{},
		model.ParticipantDeviceModel{},
		model.AlertDeliveryLogModel{},
	}

	gen := gen.NewGenerator(gen.Config{
		OutPath: "./internal/infra/persistence/postgres/query",
	})

	gen.ApplyBasic(models...)

	gen.Execute()
}
