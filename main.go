package main

import (
	"github.com/swastisunder/Nivaas/startup"
	"github.com/swastisunder/Nivaas/startup/config"
)

func main() {
	cfg := config.NewConfig()
	server := startup.NewServer(cfg)
	server.Start()
}
