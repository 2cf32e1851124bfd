package config

import (
	"fmt"

	"github.com/getmockd/sunsetd/pkg/deprecation"
)

func (a *ActionConfig) toAction() (deprecation.Action, error) {
	if a == nil {
		return deprecation.Warn{}, nil
	}
	return deprecation.NewAction(a.Type, a.StatusCode, a.Body, a.ContentType)
}

// Rule converts an endpoint declaration into a deprecation rule, applying
// defaults.
func (ep *EndpointConfig) Rule() (deprecation.Rule, error) {
	status, err := deprecation.ParseStatus(ep.Status)
	if err != nil {
		return deprecation.Rule{}, fmt.Errorf("status: %w", err)
	}
	deprecatedAt, err := parseTimestamp(ep.DeprecatedAt)
	if err != nil {
		return deprecation.Rule{}, fmt.Errorf("deprecated_at: %w", err)
	}
	sunsetAt, err := parseTimestamp(ep.SunsetAt)
	if err != nil {
		return deprecation.Rule{}, fmt.Errorf("sunset_at: %w", err)
	}
	action, err := ep.Action.toAction()
	if err != nil {
		return deprecation.Rule{}, fmt.Errorf("action: %w", err)
	}

	rule := deprecation.Rule{
		ID:               ep.ID,
		Path:             ep.Path,
		Methods:          ep.Methods,
		Status:           status,
		DeprecatedAt:     deprecatedAt,
		SunsetAt:         sunsetAt,
		DocumentationURL: ep.DocumentationURL,
		Message:          ep.Message,
		Action:           action,
		Headers:          ep.Headers,
		TrackUsage:       boolOr(ep.TrackUsage, true),
	}
	if ep.Replacement != nil {
		rule.Replacement = &deprecation.Replacement{
			Path:          ep.Replacement.Path,
			PreserveQuery: boolOr(ep.Replacement.PreserveQuery, true),
			Method:        ep.Replacement.Method,
		}
	}
	return rule, nil
}

// Rules converts every endpoint, in declaration order.
func (f *File) Rules() ([]deprecation.Rule, error) {
	rules := make([]deprecation.Rule, 0, len(f.Endpoints))
	for i := range f.Endpoints {
		rule, err := f.Endpoints[i].Rule()
		if err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// DeprecationSettings converts the settings block, applying defaults.
func (f *File) DeprecationSettings() (deprecation.Settings, error) {
	s := deprecation.DefaultSettings()
	cfg := f.Settings

	if cfg.DeprecationHeader != "" {
		s.DeprecationHeader = cfg.DeprecationHeader
	}
	if cfg.SunsetHeader != "" {
		s.SunsetHeader = cfg.SunsetHeader
	}
	if cfg.LinkHeader != "" {
		s.LinkHeader = cfg.LinkHeader
	}
	if cfg.NoticeHeader != "" {
		s.NoticeHeader = cfg.NoticeHeader
	}
	s.IncludeHeaders = boolOr(cfg.IncludeHeaders, true)
	s.LogAccess = boolOr(cfg.LogAccess, true)

	policy, err := deprecation.ParsePastSunsetAction(cfg.PastSunsetAction)
	if err != nil {
		return deprecation.Settings{}, fmt.Errorf("settings.past_sunset_action: %w", err)
	}
	s.PastSunsetAction = policy
	return s, nil
}

// Registry builds the deprecation registry described by the configuration.
func (f *File) Registry() (*deprecation.Registry, error) {
	rules, err := f.Rules()
	if err != nil {
		return nil, err
	}
	settings, err := f.DeprecationSettings()
	if err != nil {
		return nil, err
	}
	return deprecation.Build(rules, settings)
}

// LoadRegistry loads the configuration at path and builds its registry.
func LoadRegistry(path string) (*File, *deprecation.Registry, error) {
	f, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	reg, err := f.Registry()
	if err != nil {
		return nil, nil, err
	}
	return f, reg, nil
}
