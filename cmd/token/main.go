// Command token mints a development access token for a username.
//
//	go run ./cmd/token -user alice
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Kopuraj/SEM-Tracker/config"
	"github.com/Kopuraj/SEM-Tracker/pkg/jwt"
)

func main() {
	username := flag.String("user", "", "username to embed in the token")
	configPath := flag.String("config", os.Getenv("SEM_CONFIG"), "optional config file")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "usage: token -user <username> [-config path]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(*username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
