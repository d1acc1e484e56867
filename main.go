package main

import (
	"context"
	"kycflow/app"
	"kycflow/client/es"
	"kycflow/client/s3"
	"kycflow/indices"
	"kycflow/infra/tracing"
	"kycflow/notify"
	"kycflow/persistence"
	"kycflow/servehttp"
	"kycflow/session"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// a missing .env is fine, the real environment wins over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Fatalf("load .env failed: %v", err)
	}
	logrus.Info("service start")

	closer, err := tracing.SetupGlobalTracer()
	if err != nil {
		logrus.Fatalf("tracer setup failed: %v", err)
	}
	defer closer.Close()

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse database config failed: %v", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database: %v", err)
		}
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		logrus.Fatalf("database connection failed: %v", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	if err := app.Migrate(ds.GormDB(context.Background())); err != nil {
		logrus.Fatalf("database migration failed: %v", err)
	}

	mailConfig, err := notify.ParseMailConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse mail config failed: %v", err)
	}
	notify.ActiveMailConfig = mailConfig

	bucket, err := s3.BuildBucketFromEnv()
	if err != nil {
		logrus.Fatalf("build archive bucket failed: %v", err)
	}
	s3.ArchiveBucket = bucket

	opts := app.Options{
		Verifier:       session.NewTokenVerifierFromEnv(),
		SearchEnabled:  os.Getenv("ELASTICSEARCH_URL") != "",
		MailEnabled:    mailConfig != nil,
		ArchiveEnabled: bucket != nil,
	}
	if opts.SearchEnabled {
		es.CreateClientFromEnv()
		crontab, err := indices.StartCron()
		if err != nil {
			logrus.Fatalf("start index cron failed: %v", err)
		}
		defer crontab.Stop()
	}
	app.RegisterEventHandlers(opts)

	servehttp.StartHTTPServer(app.BuildEngine(opts))
}
