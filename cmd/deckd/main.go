package main

import (
	"context"
	"flag"
	"log"
	"path"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/opst/pipedeck/cmd/deckd/handlers"
	"github.com/opst/pipedeck/pkg/application"
	"github.com/opst/pipedeck/pkg/configs/deckd"
	"github.com/opst/pipedeck/pkg/echoutil"
	"github.com/opst/pipedeck/pkg/history"
	"github.com/opst/pipedeck/pkg/history/postgres"
	"github.com/opst/pipedeck/pkg/manifest"
	"github.com/opst/pipedeck/pkg/rest"
	"github.com/opst/pipedeck/pkg/tasks"
	"github.com/opst/pipedeck/pkg/utils/filewatch"
)

func main() {
	configPath := flag.String("config-path", "", "deckd config path")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	conf, err := deckd.Load(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	e := echo.New()

	// set log
	echoutil.SetLevel(e, conf.LogLevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	{
		ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), *configPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		context.AfterFunc(ctx, func() {
			log.Println("config file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	clientOptions := []rest.ClientOption{}
	if conf.OrchestratorCA != "" {
		clientOptions = append(clientOptions, rest.WithCA(conf.OrchestratorCA))
	}
	client, err := rest.NewClient(conf.OrchestratorApiRoot, clientOptions...)
	if err != nil {
		log.Fatalf("can not connect orchestrator: %s", err)
	}
	executor := tasks.NewExecutor(client, tasks.WithPollInterval(conf.PollInterval))

	ctx := context.Background()
	store, closeStore, err := getHistoryStore(ctx, conf.DbUri)
	if err != nil {
		log.Fatalf("can not prepare history store: %s", err)
	}
	defer closeStore()

	logger := log.New(e.Logger.Output(), "[deckd] ", log.LstdFlags|log.Lmsgprefix)
	api := func(p ...string) string { return path.Join(append([]string{"/api"}, p...)...) }

	{
		apps := application.NewWriter(executor, store, application.WithLogger(logger))
		e.POST(api("applications"), handlers.CreateApplicationHandler(apps, conf.TaskTimeout))
		e.PUT(api("applications/:name"), handlers.UpdateApplicationHandler(apps, "name", conf.TaskTimeout))
		e.DELETE(api("applications/:name"), handlers.DeleteApplicationHandler(apps, "name", conf.TaskTimeout))
	}

	{
		e.GET(
			api("applications/:name/executions/groups"),
			handlers.GetExecutionGroupsHandler(client, "name"),
		)
		e.GET(
			api("applications/:name/executions/groups/stream"),
			handlers.StreamExecutionGroupsHandler(client, "name", conf.PollInterval),
		)
	}

	{
		manifests := manifest.NewWriter(executor)
		e.DELETE(
			api("manifests/:account/:namespace/:kind/:name"),
			handlers.DeleteManifestHandler(
				manifests,
				handlers.ManifestParams{Account: "account", Namespace: "namespace", Kind: "kind", Name: "name"},
				conf.TaskTimeout,
			),
		)
	}

	{
		e.GET(api("history/:type"), handlers.GetHistoryHandler(store, "type"))
		e.POST(api("history/:type"), handlers.PostHistoryHandler(store, "type"))
	}

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	addr := ":" + strconv.Itoa(conf.Port)
	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(addr, cert, key))
	} else {
		e.Logger.Fatal(e.Start(addr))
	}
}

// getHistoryStore returns the store in PostgreSQL at dburi, or in memory if dburi is empty.
func getHistoryStore(ctx context.Context, dburi string) (history.Store, func(), error) {
	if dburi == "" {
		log.Println("dbUri is not set. history is kept in memory.")
		return history.NewMemory(), func() {}, nil
	}

	pg, err := postgres.New(ctx, dburi)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, pg.Close, nil
}
