package testinfra

import (
	"kycflow/persistence"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type TestDatabase struct {
	TestDatabaseName string
	DS               *persistence.DataSourceManager

	sqliteFile string
}

// StartTestDatabase uses a throwaway sqlite database file,
// or a mysql database when TEST_MYSQL_SERVICE=root:root@(127.0.0.1:3306) is set.
func StartTestDatabase(baseName string) *TestDatabase {
	databaseName := baseName + "_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	mysqlSvc := os.Getenv("TEST_MYSQL_SERVICE")
	var dbConfig *persistence.DatabaseConfig
	sqliteFile := ""
	if mysqlSvc != "" {
		dbConfig = &persistence.DatabaseConfig{
			DriverType: "mysql", DriverArgs: mysqlSvc + "/" + databaseName + "?charset=utf8mb4&parseTime=True&loc=Local&timeout=5s",
		}
		// create database (no conflict)
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	} else {
		sqliteFile = filepath.Join(os.TempDir(), databaseName+".db")
		dbConfig = &persistence.DatabaseConfig{DriverType: "sqlite3", DriverArgs: sqliteFile + "?_foreign_keys=0"}
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		defer ds.Stop()
		log.Fatalf("database conneciton failed %v\n", err)
	}

	return &TestDatabase{TestDatabaseName: databaseName, DS: ds, sqliteFile: sqliteFile}
}

func StopTestDatabase(testDatabase *TestDatabase) {
	if testDatabase == nil || testDatabase.DS == nil {
		return
	}
	if testDatabase.sqliteFile == "" {
		if db := testDatabase.DS.GormDB(nil); db != nil {
			if err := db.Exec("DROP DATABASE " + testDatabase.TestDatabaseName).Error; err != nil {
				log.Println("failed to drop test database: " + testDatabase.TestDatabaseName)
			} else {
				log.Println("test database " + testDatabase.TestDatabaseName + " dropped")
			}
		}
	}

	// close connection
	testDatabase.DS.Stop()

	if testDatabase.sqliteFile != "" {
		if err := os.Remove(testDatabase.sqliteFile); err != nil && !os.IsNotExist(err) {
			log.Println("failed to remove test database file: " + testDatabase.sqliteFile)
		}
	}
}
