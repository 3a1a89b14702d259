package repomanager

import (
	"context"
	"database/sql"

	"filerelay/internal/dbx"
	"filerelay/internal/server/repositories/files"
	"filerelay/internal/server/repositories/jobs"
	"filerelay/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// several repositories inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Files(db dbx.DBTX) files.Repository
	Jobs(db dbx.DBTX) jobs.Repository
	Users(db dbx.DBTX) users.Repository
}
