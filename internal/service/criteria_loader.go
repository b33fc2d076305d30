package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/siak-warlock/internal/dto"
	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

// DefaultCriteriaFiles are probed in order when no explicit path is configured.
var DefaultCriteriaFiles = []string{"courses.yaml", "courses.json"}

// CriteriaLoader turns course target files into a validated CriterionSet.
type CriteriaLoader struct {
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCriteriaLoader constructs a loader.
func NewCriteriaLoader(validate *validator.Validate, logger *zap.Logger) *CriteriaLoader {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CriteriaLoader{validator: validate, logger: logger}
}

// Discover returns explicit when set, otherwise the first default file found in dir.
func (l *CriteriaLoader) Discover(dir, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("course targets file %s not found", explicit))
		}
		return explicit, nil
	}
	for _, name := range DefaultCriteriaFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrNotFound, "courses.yaml or courses.json not found")
}

// LoadFile reads and parses a course target file. The format follows the extension.
func (l *CriteriaLoader) LoadFile(path string) (models.CriterionSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.CriterionSet{}, err
	}
	l.logger.Info("loading course targets", zap.String("path", path))

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &doc)
	default:
		err = json.Unmarshal(raw, &doc)
	}
	if err != nil {
		return models.CriterionSet{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("parse %s", path))
	}
	return l.Parse(doc)
}

// Parse accepts a decoded document in either supported layout: the legacy
// mapping of course name to professor, or a list of target objects.
func (l *CriteriaLoader) Parse(doc any) (models.CriterionSet, error) {
	var targets []dto.CourseTarget
	switch v := doc.(type) {
	case map[string]any:
		l.logger.Info("detected legacy course mapping")
		targets = parseLegacyTargets(v)
	case []any:
		targets = l.parseTargetList(v)
	case nil:
		targets = nil
	default:
		return models.CriterionSet{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported course targets document %T", doc))
	}
	set, err := l.Build(targets)
	if err != nil {
		return models.CriterionSet{}, err
	}
	l.logger.Info("loaded course targets", zap.Int("count", set.Len()))
	return set, nil
}

// Build validates the targets and normalises them into criteria.
func (l *CriteriaLoader) Build(targets []dto.CourseTarget) (models.CriterionSet, error) {
	criteria := make([]models.Criterion, 0, len(targets))
	for i, target := range targets {
		if err := l.validator.Struct(target); err != nil {
			return models.CriterionSet{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("course target #%d invalid", i+1))
		}
		criteria = append(criteria, models.Criterion{
			CourseName:  models.Some(target.Course),
			Professor:   models.Some(target.Prof),
			Time:        models.Some(target.Time),
			ExactCode:   models.Some(target.Code),
			DisplayName: strings.TrimSpace(target.Name),
		})
	}
	return models.NewCriterionSet(criteria...)
}

func parseLegacyTargets(doc map[string]any) []dto.CourseTarget {
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	targets := make([]dto.CourseTarget, 0, len(names))
	for _, name := range names {
		targets = append(targets, dto.CourseTarget{Course: name, Prof: scalarString(doc[name])})
	}
	return targets
}

func (l *CriteriaLoader) parseTargetList(items []any) []dto.CourseTarget {
	targets := make([]dto.CourseTarget, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			l.logger.Warn("skipping course target that is not an object", zap.Int("index", i))
			continue
		}
		targets = append(targets, dto.CourseTarget{
			Course: scalarString(fields["course"]),
			Prof:   scalarString(fields["prof"]),
			Code:   scalarString(fields["code"]),
			Time:   scalarString(fields["time"]),
			Name:   scalarString(fields["name"]),
		})
	}
	return targets
}

// scalarString renders YAML/JSON scalars as strings; numeric class codes are common.
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
