package service

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/yuin/goldmark"

	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/repository"
	"github.com/blomstudio/blom/internal/storage"
)

type CourseService struct {
	courseRepository     repository.CourseRepository
	enrollmentRepository repository.EnrollmentRepository
	storage              storage.Storage
	markdown             goldmark.Markdown
}

func NewCourseService(
	courseRepository repository.CourseRepository,
	enrollmentRepository repository.EnrollmentRepository,
	fileStorage storage.Storage,
) *CourseService {
	return &CourseService{
		courseRepository:     courseRepository,
		enrollmentRepository: enrollmentRepository,
		storage:              fileStorage,
		markdown:             goldmark.New(),
	}
}

func (s *CourseService) List(ctx context.Context) ([]*model.Course, error) {
	courses, err := s.courseRepository.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, course := range courses {
		s.decorate(course, false)
	}
	return courses, nil
}

// ByRef resolves a course by slug or id and renders its description.
func (s *CourseService) ByRef(ctx context.Context, ref string) (*model.Course, error) {
	course, err := s.courseRepository.ByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.decorate(course, true)
	return course, nil
}

func (s *CourseService) Lessons(ctx context.Context, course *model.Course, includeVideos bool) ([]*model.Lesson, error) {
	lessons, err := s.courseRepository.LessonsByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	for _, lesson := range lessons {
		if lesson.VideoPath != "" && (includeVideos || lesson.IsPreview) {
			lesson.VideoURL = s.storage.URL(lesson.VideoPath)
		}
	}
	return lessons, nil
}

func (s *CourseService) EnrolledCourses(ctx context.Context, userID string) ([]*model.Course, error) {
	courses, err := s.enrollmentRepository.CoursesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, course := range courses {
		s.decorate(course, false)
	}
	return courses, nil
}

func (s *CourseService) decorate(course *model.Course, withDescription bool) {
	if course.CoverPath != "" {
		course.CoverURL = s.storage.URL(course.CoverPath)
	}
	if withDescription && course.Description != "" {
		var buf bytes.Buffer
		err := s.markdown.Convert([]byte(course.Description), &buf)
		if err != nil {
			slog.Warn("failed to render course description", "error", err, "course_id", course.ID)
		} else {
			course.DescriptionHTML = buf.String()
		}
	}
}
