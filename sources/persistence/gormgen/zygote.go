package main

import (
	"modelkiosk/sources/persistence/entities"

	"gorm.io/gen"
)

func main() {
	g := gen.NewGenerator(gen.Config{
		OutPath:      "./sources/persistence/gormdao/query",
		ModelPkgPath: "./sources/persistence/gormdao/model",
		Mode:         gen.WithDefaultQuery | gen.WithQueryInterface,
	})

	g.ApplyBasic(entities.User{}, entities.PendingCharge{}, entities.ProcessedUpdate{}, entities.InstanceLease{}, entities.Generation{})
	g.Execute()
}
