// Command token mints a collaborator bearer token signed with COLLABORATOR_SECRET.
package main

import (
	"bounty-lab/auth"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	CollaboratorSecret string `envconfig:"COLLABORATOR_SECRET" required:"true"`
}

func main() {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("config error: ", err)
	}
	collaborator := flag.String("collaborator", "deposit-flow", "Name of the calling service")
	scopes := flag.String("scopes", strings.Join([]string{auth.ScopeActivityWrite, auth.ScopeDepositWrite}, ","),
		"Comma separated scopes")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	token, err := auth.NewTokenIssuer(cfg.CollaboratorSecret).
		GenerateToken(*collaborator, strings.Split(*scopes, ","), *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
