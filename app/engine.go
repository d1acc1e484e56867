package app

import (
	"kycflow/account"
	"kycflow/archive"
	"kycflow/bizerror"
	"kycflow/client/es"
	"kycflow/domain/approval"
	"kycflow/domain/branch"
	"kycflow/domain/role"
	"kycflow/event"
	"kycflow/indices"
	"kycflow/indices/search"
	"kycflow/infra/tracing"
	"kycflow/notify"
	"kycflow/session"
	"kycflow/sessions"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Verifier *session.TokenVerifier
	// SearchEnabled registers the index resync and the full-text search endpoints
	SearchEnabled bool
	// MailEnabled registers the applicant notifier
	MailEnabled bool
	// ArchiveEnabled registers the audit archiver and the archive endpoint
	ArchiveEnabled bool
}

// RegisterEventHandlers installs the post-commit handlers, previously installed ones are replaced
func RegisterEventHandlers(opts Options) {
	handlers := []event.EventHandler{}
	if opts.SearchEnabled {
		handlers = append(handlers, indices.IndexWorkflowEventHandle)
	}
	if opts.MailEnabled {
		handlers = append(handlers, notify.NotifyApplicantEventHandle)
	}
	if opts.ArchiveEnabled {
		handlers = append(handlers, archive.ArchiveAuditTrailEventHandle)
	}
	event.EventHandlers = handlers
	logrus.Infof("event handlers: search indexing %v, applicant mail %v, audit archive %v",
		opts.SearchEnabled, opts.MailEnabled, opts.ArchiveEnabled)
}

func BuildEngine(opts Options) *gin.Engine {
	engine := gin.Default()
	engine.Use(tracing.TracingIngress())
	engine.Use(bizerror.ErrorHandling())

	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "kycflow")
	})
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"search": es.ActiveESClient != nil && opts.SearchEnabled,
			"mail": opts.MailEnabled, "archive": opts.ArchiveEnabled})
	})

	auth := session.SimpleAuthFilter(opts.Verifier, account.LoadPrincipal)

	sessions.RegisterSessionHandler(engine, auth)
	sessions.RegisterSessionsHandler(engine, auth)
	role.RegisterRolesRestAPI(engine, auth)
	branch.RegisterBranchesRestAPI(engine, auth)
	approval.RegisterWorkflowsRestAPI(engine, auth)
	if opts.SearchEnabled {
		indices.RegisterIndicesRestAPI(engine, auth)
		search.RegisterSearchRestAPI(engine, auth)
	}
	if opts.ArchiveEnabled {
		archive.RegisterArchiveRestAPI(engine, auth)
	}
	return engine
}
