package domain

import "time"

// AuditAction names a state-changing operation recorded in the audit trail.
type AuditAction string

const (
	AuditUserRegistered  AuditAction = "user.registered"
	AuditUserLoggedIn    AuditAction = "user.logged_in"
	AuditPasswordChanged AuditAction = "user.password_changed"
	AuditUserRenamed     AuditAction = "user.renamed"
	AuditUserDisabled    AuditAction = "user.disabled"
	AuditUserEnabled     AuditAction = "user.enabled"
	AuditGameCreated     AuditAction = "game.created"
	AuditGameUpdated     AuditAction = "game.updated"
	AuditGameDeleted     AuditAction = "game.deleted"
	AuditGamesPurged     AuditAction = "game.purged"
)

// AuditEvent records who did what to which document.
type AuditEvent struct {
	ID       string
	Action   AuditAction
	ActorID  string
	TargetID string
	At       time.Time
	Details  map[string]any
}
