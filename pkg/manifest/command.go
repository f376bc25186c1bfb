package manifest

type DeleteOptions struct {
	GracePeriodSeconds *int

	// Cascading deletes dependants together. It is sent as its inverse, "orphanDependants".
	Cascading bool
}

// DeleteCommand is a request to delete a manifest, as users give.
type DeleteCommand struct {
	ManifestName string
	Location     string
	Account      string
	Reason       *string
	Options      DeleteOptions
}

func NewDeleteCommand(coords Coordinates) DeleteCommand {
	return DeleteCommand{
		ManifestName: coords.Name,
		Location:     coords.Namespace,
		Account:      coords.Account,
		Reason:       nil,
		Options:      DeleteOptions{Cascading: true},
	}
}

// BuildDeletePayload builds command payload to delete a manifest.
//
// It is a copy of cmd with "cloudProvider": "kubernetes",
// and "options.cascading" is replaced with its inverse "options.orphanDependants".
//
// "reason" is null when cmd has no reason.
func BuildDeletePayload(cmd DeleteCommand) map[string]any {
	options := map[string]any{
		"orphanDependants": !cmd.Options.Cascading,
	}
	if gp := cmd.Options.GracePeriodSeconds; gp != nil {
		options["gracePeriodSeconds"] = *gp
	}

	var reason any
	if cmd.Reason != nil {
		reason = *cmd.Reason
	}

	return map[string]any{
		"manifestName":  cmd.ManifestName,
		"location":      cmd.Location,
		"account":       cmd.Account,
		"reason":        reason,
		"options":       options,
		"cloudProvider": "kubernetes",
	}
}
