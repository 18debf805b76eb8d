package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/utils/logging"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	connectAttempts = 5
	connectInterval = 2 * time.Second
)

// Postgres implements interfaces.Repository on a PostgreSQL database via GORM
type Postgres struct {
	db           *gorm.DB
	organization *organizationRepository
	framework    *frameworkRepository
	assessment   *assessmentRepository
	risk         *riskRepository
	audit        *auditRepository
}

var _ interfaces.Repository = &Postgres{}

type Option func(*config)

type config struct {
	tablePrefix string
}

// WithTablePrefix prepends the given prefix to every table name. Used to
// isolate test runs sharing one database.
func WithTablePrefix(prefix string) Option {
	return func(c *config) {
		c.tablePrefix = prefix + "_"
	}
}

// New connects to the database, runs schema migration and returns the
// repository. Connection failures are retried a few times so the engine
// survives a database that is still starting up.
func New(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: cfg.tablePrefix,
		},
	}

	var db *gorm.DB
	var err error
	for i := 1; i <= connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
		if err == nil {
			break
		}

		logging.From(ctx).Warn("failed to connect to database, retrying",
			"attempt", i,
			"max_attempts", connectAttempts,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "canceled while connecting to database")
		case <-time.After(connectInterval):
		}
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to database", goerr.V("attempts", connectAttempts))
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&organizationRecord{},
		&frameworkRecord{},
		&assessmentRecord{},
		&riskRecord{},
		&auditRecord{},
	); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate database schema")
	}

	return &Postgres{
		db:           db,
		organization: &organizationRepository{db: db},
		framework:    &frameworkRepository{db: db},
		assessment:   &assessmentRepository{db: db},
		risk:         &riskRepository{db: db},
		audit:        &auditRepository{db: db},
	}, nil
}

func (p *Postgres) Organization() interfaces.OrganizationRepository {
	return p.organization
}

func (p *Postgres) Framework() interfaces.FrameworkRepository {
	return p.framework
}

func (p *Postgres) Assessment() interfaces.AssessmentRepository {
	return p.assessment
}

func (p *Postgres) Risk() interfaces.RiskRepository {
	return p.risk
}

func (p *Postgres) Audit() interfaces.AuditLogRepository {
	return p.audit
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get underlying connection")
	}
	return sqlDB.Close()
}
