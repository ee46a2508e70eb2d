package model

import "time"

// Project is one theater production.  Every member, script and
// scheduling poll belongs to exactly one project.
//
// Fields:
//  ID                – opaque identifier (UUID string).
//  Name              – display name of the production.
//  RequiredRolesHint – default comma-joined required roles offered
//                      when a coordinator creates a new poll.
//  NotifyTargets     – comma-joined notification targets (chat
//                      channel ids, mail lists) echoed to reminders.
//  CreatedAt         – creation timestamp (UTC).
type Project struct {
    ID                string    // projects.id
    Name              string    // projects.name
    RequiredRolesHint string    // projects.required_roles_hint
    NotifyTargets     string    // projects.notify_targets
    CreatedAt         time.Time // projects.created_at
}

// Member is a person taking part in a project: cast, staff or both.
// ExternalID is the identity from the login provider and is unique
// within the project.  StaffRole is free text (director, lighting,
// production...) and may be empty for pure cast members.
type Member struct {
    ID          string    // members.id
    ProjectID   string    // members.project_id
    ExternalID  string    // members.external_id
    DisplayName string    // members.display_name
    StaffRole   string    // members.staff_role
    CreatedAt   time.Time // members.created_at
}
