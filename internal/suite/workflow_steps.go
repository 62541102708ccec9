package suite

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"stackprobe/internal/capture"
	"stackprobe/internal/workflows"
)

// workflowStep runs a named workflow and returns lines worth reporting.
type workflowStep func(ctx context.Context, w *workflows.Workflows, args map[string]string) ([]string, error)

var workflowSteps = map[string]workflowStep{
	"create_project": func(ctx context.Context, w *workflows.Workflows, args map[string]string) ([]string, error) {
		name, err := w.CreateProject(ctx, workflows.ProjectOptions{
			Name:     args["name"],
			Auth:     args["auth"],
			Frontend: args["frontend"],
			Services: splitList(args["services"]),
			Extra:    args["extra"],
		})
		return []string{"project: " + name}, err
	},
	"init_project": func(ctx context.Context, w *workflows.Workflows, args map[string]string) ([]string, error) {
		return nil, w.InitProject(ctx, args["pre"], args["post"])
	},
	"pull_images": func(ctx context.Context, w *workflows.Workflows, _ map[string]string) ([]string, error) {
		return nil, w.PullImages(ctx)
	},
	"start_stack": func(ctx context.Context, w *workflows.Workflows, _ map[string]string) ([]string, error) {
		return nil, w.StartStack(ctx)
	},
	"start_registry": func(ctx context.Context, w *workflows.Workflows, _ map[string]string) ([]string, error) {
		logs, err := w.StartRegistry(ctx)
		return capture.SplitLines(logs), err
	},
	"verify_service": func(ctx context.Context, w *workflows.Workflows, args map[string]string) ([]string, error) {
		service, err := required(args, "service")
		if err != nil {
			return nil, err
		}
		return nil, w.VerifyService(ctx, service)
	},
	"execute_outside": func(ctx context.Context, w *workflows.Workflows, args map[string]string) ([]string, error) {
		command, err := required(args, "command")
		if err != nil {
			return nil, err
		}
		return nil, w.ExecuteOutside(ctx, command)
	},
	"container_start_date": func(ctx context.Context, w *workflows.Workflows, args map[string]string) ([]string, error) {
		service, err := required(args, "service")
		if err != nil {
			return nil, err
		}
		wait := false
		if raw := args["wait"]; raw != "" {
			if wait, err = strconv.ParseBool(raw); err != nil {
				return nil, fmt.Errorf("invalid wait value %q: %w", raw, err)
			}
		}
		started, err := w.ContainerStartDate(ctx, service, wait)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s started at %s", service, started.Format(time.RFC3339Nano))}, nil
	},
	"projectrc_variable": func(_ context.Context, w *workflows.Workflows, args map[string]string) ([]string, error) {
		name, err := required(args, "name")
		if err != nil {
			return nil, err
		}
		value, err := w.ProjectRCVariable(name)
		if err != nil {
			return nil, err
		}
		if expected, ok := args["expect"]; ok && value != expected {
			return []string{name + "=" + value}, &expectationError{fmt.Sprintf("%s is %q, expected %q", name, value, expected)}
		}
		return []string{name + "=" + value}, nil
	},
}

// WorkflowNames lists the workflows usable in scenario steps.
func WorkflowNames() []string {
	names := make([]string, 0, len(workflowSteps))
	for name := range workflowSteps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// expectationError marks a step whose action worked but whose outcome was
// not the expected one.
type expectationError struct {
	msg string
}

func (e *expectationError) Error() string { return e.msg }

func required(args map[string]string, key string) (string, error) {
	value := strings.TrimSpace(args[key])
	if value == "" {
		return "", fmt.Errorf("missing workflow argument %q", key)
	}
	return value, nil
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
