package app

import (
	"fmt"

	"whisperli/config"
	"whisperli/db"
	"whisperli/model"
	"whisperli/repository"
	"whisperli/storage"
)

// OpenStore connects the session store selected by SESSION_STORE. The
// returned close func may be nil.
func OpenStore(cfg *config.Config) (repository.SessionStore, func() error, error) {
	switch cfg.SessionStore {
	case config.StoreFile, "":
		return repository.NewFileSessionStore(cfg.SessionsDir), nil, nil

	case config.StoreRedis:
		if err := db.ConnectRedis(cfg); err != nil {
			return nil, nil, err
		}
		return repository.NewRedisSessionStore(db.RedisClient, cfg.RedisKeyPrefix), db.CloseRedis, nil

	case config.StoreMinio:
		if err := storage.InitMinio(cfg); err != nil {
			return nil, nil, err
		}
		return repository.NewMinioSessionStore(storage.GetMinioClient(), cfg.MinioBucket, cfg.MinioPrefix), nil, nil

	case config.StoreMySQL:
		if err := db.ConnectGormDB(cfg); err != nil {
			return nil, nil, err
		}
		if err := db.AutoMigrateModels(&model.SessionRecord{}); err != nil {
			db.CloseGormDB()
			return nil, nil, err
		}
		return repository.NewGormSessionStore(db.GormDB), db.CloseGormDB, nil

	case config.StoreSQLite:
		if err := db.ConnectSQLite(cfg.SQLitePath); err != nil {
			return nil, nil, err
		}
		return repository.NewSQLiteSessionStore(db.SQLiteDB), db.CloseSQLite, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
