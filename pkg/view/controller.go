package view

import "log/slog"

// Controller is the response side of a render: it receives the layout that
// was applied and the content type of the first executed template. A nil
// Controller is valid everywhere and turns every call into a no-op.
type Controller interface {
	SetLayoutPath(path string)
	SetContentTypeIfUnset(contentType string)
}

// ControllerLogger is implemented by controllers that want render log lines
// ("Rendering users/show", "Rendering template within layouts/application")
// written to their own logger.
type ControllerLogger interface {
	Logger() *slog.Logger
}

// ControllerPather is implemented by controllers that own a view namespace,
// such as "users". It is the last fallback prefix for unqualified names.
type ControllerPather interface {
	ControllerPath() string
}

// AssignsProvider is implemented by controllers that expose values to every
// template of a render.
type AssignsProvider interface {
	Assigns() map[string]any
}

func setLayoutPath(c Controller, layoutPath string) {
	if c != nil {
		c.SetLayoutPath(layoutPath)
	}
}

func setContentType(c Controller, contentType string) {
	if c != nil && contentType != "" {
		c.SetContentTypeIfUnset(contentType)
	}
}

func controllerLogger(c Controller) *slog.Logger {
	if l, ok := c.(ControllerLogger); ok {
		return l.Logger()
	}
	return nil
}

func controllerPath(c Controller) string {
	if p, ok := c.(ControllerPather); ok {
		return p.ControllerPath()
	}
	return ""
}

func controllerAssigns(c Controller) map[string]any {
	if p, ok := c.(AssignsProvider); ok {
		return p.Assigns()
	}
	return nil
}
