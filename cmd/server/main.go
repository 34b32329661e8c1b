package main

import (
	"github.com/graphview/backend/internal/server"
	"github.com/graphview/backend/internal/util"
	"github.com/graphview/backend/pkg/logger"
	"github.com/graphview/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
		JSON:  util.GetEnv("LOG_FORMAT") == "json",
	})
	logger.Init(consoleLogger)

	server.Init()
}
