package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/repository"
)

// AccessDecision is the answer to "may this user view this course?". A query
// failure is reported as denied with the underlying reason attached, never
// silently as granted.
type AccessDecision struct {
	Granted bool   `json:"granted"`
	Rule    string `json:"rule,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func granted(rule string) AccessDecision {
	return AccessDecision{Granted: true, Rule: rule}
}

func denied(reason string) AccessDecision {
	return AccessDecision{Granted: false, Reason: reason}
}

// AccessRule is one named access policy. Evaluate returns (decision, true)
// when the rule decides the outcome, or (_, false) to defer to the next rule.
// Policy lives here, as data, so adding a bypass never touches the resolver
// algorithm itself.
type AccessRule interface {
	Name() string
	Evaluate(ctx context.Context, user *model.User, course *model.Course) (AccessDecision, bool, error)
}

// adminAllowlistRule grants access to the configured admin user ids.
type adminAllowlistRule struct {
	ids map[string]bool
}

func (r adminAllowlistRule) Name() string { return "admin-allowlist" }

func (r adminAllowlistRule) Evaluate(_ context.Context, user *model.User, _ *model.Course) (AccessDecision, bool, error) {
	if r.ids[user.ID] {
		return granted(r.Name()), true, nil
	}
	return AccessDecision{}, false, nil
}

// openEnrollmentRule grants access when the course is marked open to all
// authenticated users.
type openEnrollmentRule struct{}

func (r openEnrollmentRule) Name() string { return "open-enrollment" }

func (r openEnrollmentRule) Evaluate(_ context.Context, _ *model.User, course *model.Course) (AccessDecision, bool, error) {
	if course.OpenEnrollment {
		return granted(r.Name()), true, nil
	}
	return AccessDecision{}, false, nil
}

// enrollmentRule grants access when an enrollment row exists. It is the
// terminal rule: it always decides.
type enrollmentRule struct {
	enrollments repository.EnrollmentRepository
}

func (r enrollmentRule) Name() string { return "enrollment" }

func (r enrollmentRule) Evaluate(ctx context.Context, user *model.User, course *model.Course) (AccessDecision, bool, error) {
	exists, err := r.enrollments.Exists(ctx, user.ID, course.ID)
	if err != nil {
		return AccessDecision{}, true, err
	}
	if exists {
		return granted(r.Name()), true, nil
	}
	return denied("not enrolled"), true, nil
}

// AccessResolver answers course access questions by evaluating its policy
// rules in fixed order. Read-only: it never mutates enrollments.
type AccessResolver struct {
	courseRepository repository.CourseRepository
	rules            []AccessRule
}

func NewAccessResolver(
	courseRepository repository.CourseRepository,
	enrollmentRepository repository.EnrollmentRepository,
	adminUserIDs []string,
) *AccessResolver {
	ids := make(map[string]bool, len(adminUserIDs))
	for _, id := range adminUserIDs {
		ids[id] = true
	}

	return &AccessResolver{
		courseRepository: courseRepository,
		rules: []AccessRule{
			adminAllowlistRule{ids: ids},
			openEnrollmentRule{},
			enrollmentRule{enrollments: enrollmentRepository},
		},
	}
}

// HasAccess accepts either a course slug or a durable course id; resolving
// to the canonical course is this method's job, not the caller's. An absent
// user is denied without touching the database.
func (r *AccessResolver) HasAccess(ctx context.Context, user *model.User, courseRef string) AccessDecision {
	if user == nil {
		return denied("not authenticated")
	}

	course, err := r.courseRepository.ByRef(ctx, courseRef)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return denied("course not found")
		}
		slog.Error("course lookup failed during access check", "error", err, "course_ref", courseRef)
		return denied("course lookup failed: " + err.Error())
	}

	for _, rule := range r.rules {
		decision, decided, err := rule.Evaluate(ctx, user, course)
		if err != nil {
			slog.Error("access rule failed", "error", err, "rule", rule.Name(), "user_id", user.ID, "course_id", course.ID)
			return denied("access check failed: " + err.Error())
		}
		if decided {
			return decision
		}
	}

	return denied("not enrolled")
}
