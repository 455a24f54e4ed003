package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/smallbiznis/tillsync/internal/catalog"
	"github.com/smallbiznis/tillsync/internal/clock"
	"github.com/smallbiznis/tillsync/internal/config"
	"github.com/smallbiznis/tillsync/internal/demoloop"
	"github.com/smallbiznis/tillsync/internal/observability"
	"github.com/smallbiznis/tillsync/internal/payment"
	"github.com/smallbiznis/tillsync/internal/pos"
	"github.com/smallbiznis/tillsync/internal/server"
	"github.com/smallbiznis/tillsync/internal/snapshot"
	"github.com/smallbiznis/tillsync/internal/trace"
	"github.com/smallbiznis/tillsync/pkg/log"
)

func main() {
	app := fx.New(
		// Core infrastructure.
		config.Module,
		config.DemoModule,
		log.Module,
		observability.Module,
		clock.Module,
		fx.Provide(registerSnowflake),
		catalog.Module,

		// Functional domains.
		trace.Module,
		payment.Module,
		snapshot.Module,
		pos.Module,
		demoloop.Module,

		// Diagnostics surface.
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
