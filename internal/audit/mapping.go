package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseRoute returns action and resource for an HTTP method and chi route pattern
// (e.g. PATCH /api/v1/users/{id}). Resource is the singular first segment after the API prefix.
// Action is create, update or delete by method; a literal segment after an id
// (e.g. /users/{id}/reset-password) becomes the action with dashes replaced by underscores.
func ParseRoute(method, pattern string) ActionResource {
	p := strings.TrimPrefix(pattern, "/api/v1")
	parts := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	resource := strings.TrimSuffix(parts[0], "s")
	last := parts[len(parts)-1]
	if len(parts) > 1 && !strings.HasPrefix(last, "{") {
		return ActionResource{Action: strings.ReplaceAll(last, "-", "_"), Resource: resource}
	}
	return ActionResource{Action: methodToAction(method, len(parts) > 1), Resource: resource}
}

func methodToAction(method string, hasID bool) string {
	switch method {
	case "GET":
		if hasID {
			return "get"
		}
		return "list"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
