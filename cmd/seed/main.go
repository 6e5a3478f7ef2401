// Command seed fills an empty database with the admin account and demo
// data. Each seed skips itself when its table already has rows.
//
//	seed                       run every seed
//	seed -only admin,students  run the named seeds
//	seed -list                 print the seed names
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mindbridge/counsel-api/config"
	"github.com/mindbridge/counsel-api/database"
	"github.com/mindbridge/counsel-api/utils/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	only := flag.String("only", "", "comma separated seed names")
	list := flag.Bool("list", false, "print the seed names and exit")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: .env file not found, using system environment variables")
	}
	log := logger.New(os.Getenv("GO_ENV"))
	defer log.Sync()

	if *list {
		fmt.Println(strings.Join(database.NewSeeder(nil, log).StepNames(), "\n"))
		return
	}

	store, err := database.StartGORM(log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	var names []string
	for _, n := range strings.Split(*only, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	seeder := database.NewSeeder(store.GetDB().(*gorm.DB), log)
	if err := seeder.Run(names); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}
	log.Info("seeding finished", zap.Strings("seeds", names), zap.Bool("admin_from_env", os.Getenv("ADMIN_EMAIL") != ""))
}
