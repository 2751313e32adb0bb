package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/client/services"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

var accessNames = map[models.AccessRequired]string{
	models.AccessAny:           "any",
	models.AccessMember:        "member",
	models.AccessAdministrator: "admin",
	models.AccessUnsatisfiable: "nobody",
}

func accessName(a models.AccessRequired) string {
	if n, ok := accessNames[a]; ok {
		return n
	}
	return "unknown"
}

func parseAccess(s string) (models.AccessRequired, error) {
	for a, n := range accessNames {
		if strings.EqualFold(s, n) {
			return a, nil
		}
	}
	return models.AccessUnknown, fmt.Errorf("unknown access level %q (any, member, admin, nobody)", s)
}

// parseAddress reads an account id or, failing that, a phone number.
func parseAddress(s string) (models.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Address{}, fmt.Errorf("empty member address")
	}
	if uid, err := uuid.Parse(s); err == nil {
		return models.Address{UID: uid}, nil
	}
	return models.Address{Phone: s}, nil
}

func parseMasterKey(s string) (zkgroup.GroupMasterKey, error) {
	mk, err := zkgroup.ParseGroupMasterKey(strings.TrimSpace(s))
	if err != nil {
		return mk, fmt.Errorf("invalid group master key: %w", err)
	}
	return mk, nil
}

func printGroup(w io.Writer, g models.GroupState) {
	id, _ := services.GroupIDFromMasterKey(g.MasterKey)
	fmt.Fprintf(w, "group        %s\n", id)
	fmt.Fprintf(w, "master key   %s\n", g.MasterKey)
	fmt.Fprintf(w, "revision     %d\n", g.Revision)
	fmt.Fprintf(w, "title        %s\n", g.Title)
	if g.Avatar != "" {
		fmt.Fprintf(w, "avatar       %s\n", g.Avatar)
	}
	if g.DisappearingMessagesTimer > 0 {
		fmt.Fprintf(w, "timer        %ds\n", g.DisappearingMessagesTimer)
	}
	fmt.Fprintf(w, "access       attributes=%s members=%s\n", accessName(g.Access.Attributes), accessName(g.Access.Members))
	fmt.Fprintf(w, "members      %d\n", len(g.Members))
	for _, m := range g.Members {
		fmt.Fprintf(w, "  %s  %-6s  joined at %d\n", m.UID, m.Role, m.JoinedAtRevision)
	}
}

// describeChange renders one change as a single line.
func describeChange(c models.GroupV2Change) string {
	a := c.Actions
	var parts []string
	for _, m := range a.AddMembers {
		parts = append(parts, fmt.Sprintf("+%s (%s)", m.UID, m.Role))
	}
	for _, uid := range a.DeleteMembers {
		parts = append(parts, "-"+uid.String())
	}
	for _, rc := range a.ModifyMemberRoles {
		parts = append(parts, fmt.Sprintf("%s is now %s", rc.UID, rc.Role))
	}
	if a.ModifyTitle != nil {
		parts = append(parts, fmt.Sprintf("title %q", *a.ModifyTitle))
	}
	if a.ModifyAvatar != nil {
		parts = append(parts, "avatar "+*a.ModifyAvatar)
	}
	if a.ModifyDisappearingMessagesTimer != nil {
		parts = append(parts, fmt.Sprintf("timer %ds", *a.ModifyDisappearingMessagesTimer))
	}
	if a.ModifyAttributesAccess != nil {
		parts = append(parts, "attributes access "+accessName(*a.ModifyAttributesAccess))
	}
	if a.ModifyMemberAccess != nil {
		parts = append(parts, "members access "+accessName(*a.ModifyMemberAccess))
	}
	return fmt.Sprintf("revision %d by %s: %s", c.Revision, a.SourceUID, strings.Join(parts, ", "))
}
