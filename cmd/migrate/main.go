// Command migrate applies the embedded goose migrations against the
// configured MySQL database. Usage: migrate [up|down|status].
package main

import (
	"database/sql"
	"log"
	"os"

	intconfig "busticket/internal/config"
	"busticket/migrations"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	env := intconfig.LoadEnv()
	db, err := sql.Open("mysql", intconfig.DSN(env))
	if err != nil {
		log.Fatalf("[DB] open failed: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("[DB] ping failed: %v", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("mysql"); err != nil {
		log.Fatalf("[DB] goose dialect err: %v", err)
	}

	switch command {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	default:
		log.Fatalf("unknown command %q (want up, down or status)", command)
	}
	if err != nil {
		log.Fatalf("[DB] goose %s failed: %v", command, err)
	}
	log.Printf("[DB] goose %s complete", command)
}
