package persistence

import (
	"context"
	"database/sql"
	"errors"
	"kycflow/common"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/sirupsen/logrus"
	otgorm "github.com/smacker/opentracing-gorm"
)

var ActiveDataSourceManager *DataSourceManager

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv DB_DRIVER=mysql|sqlite3, DB_DSN=root:root@(127.0.0.1:3306)/kycflow?charset=utf8mb4&parseTime=True&loc=Local
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	driverType := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driverType == "" {
		driverType = "mysql"
	}
	if driverType != "mysql" && driverType != "sqlite3" {
		return nil, errors.New("unsupported database driver '" + driverType + "'")
	}

	driverArgs := strings.TrimSpace(os.Getenv("DB_DSN"))
	if driverArgs == "" {
		if driverType == "sqlite3" {
			driverArgs = "kycflow.db"
		} else {
			mysqlSvc := os.Getenv("MYSQL_SERVICE")
			if mysqlSvc == "" {
				mysqlSvc = "root:root@(127.0.0.1:3306)"
			}
			dbName := os.Getenv("DB_NAME")
			if dbName == "" {
				dbName = "kycflow"
			}
			driverArgs = mysqlSvc + "/" + dbName + "?charset=utf8mb4&parseTime=True&loc=Local&timeout=5s"
		}
	}
	return &DatabaseConfig{DriverType: driverType, DriverArgs: driverArgs}, nil
}

// PrepareMysqlDatabase creates the database named in the dsn when it does not exist
func PrepareMysqlDatabase(dsn string) error {
	config, err := mysql.ParseDSN(dsn)
	if err != nil {
		return err
	}
	dbName := config.DBName
	if dbName == "" {
		return errors.New("database name is missing in dsn")
	}
	config.DBName = ""

	db, err := sql.Open("mysql", config.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS `" + dbName + "` DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci")
	return err
}

type DataSourceManager struct {
	gormDB *gorm.DB

	DatabaseConfig *DatabaseConfig
}

func (m *DataSourceManager) Start() error {
	db, err := connect(m.DatabaseConfig)
	if err != nil {
		return err
	}
	m.gormDB = db
	if !common.IsReleaseMode() {
		m.gormDB.LogMode(true)
	}
	otgorm.AddGormCallbacks(m.gormDB)
	return nil
}

func (m *DataSourceManager) Stop() {
	if m.gormDB != nil {
		if err := m.gormDB.Close(); err != nil {
			logrus.Warnf("failed to close DB: %v", err)
		}
		m.gormDB = nil
	}
}

// GormDB returns a fresh session which carries the tracing span of ctx, if any.
func (m *DataSourceManager) GormDB(ctx context.Context) *gorm.DB {
	if m.gormDB == nil {
		return nil
	}
	if ctx == nil {
		return m.gormDB.New()
	}
	return otgorm.SetSpanToGorm(ctx, m.gormDB.New())
}

func connect(config *DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(config.DriverType, config.DriverArgs)
	if err != nil {
		return nil, err
	}
	if err := db.DB().Ping(); err != nil {
		return nil, err
	}
	if config.DriverType == "sqlite3" {
		// sqlite allows one writer only, a single connection serializes transactions
		db.DB().SetMaxOpenConns(1)
	}
	return db, nil
}
