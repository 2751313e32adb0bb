package proto

import "google.golang.org/protobuf/encoding/protowire"

type AddMemberAction struct {
	Added *Member
}

func (m *AddMemberAction) Marshal() []byte {
	if m.Added == nil {
		return nil
	}
	return appendMessage(nil, 1, m.Added)
}

func (m *AddMemberAction) Unmarshal(b []byte) error {
	*m = AddMemberAction{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip, nil
		}
		m.Added = &Member{}
		return consumeMessage(num, typ, b, m.Added)
	})
}

type DeleteMemberAction struct {
	DeletedUserID []byte
}

func (m *DeleteMemberAction) Marshal() []byte {
	return appendBytes(nil, 1, m.DeletedUserID)
}

func (m *DeleteMemberAction) Unmarshal(b []byte) error {
	*m = DeleteMemberAction{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip, nil
		}
		return consumeBytes(num, typ, b, &m.DeletedUserID)
	})
}

type ModifyMemberRoleAction struct {
	UserID []byte
	Role   uint32
}

func (m *ModifyMemberRoleAction) Marshal() []byte {
	b := appendBytes(nil, 1, m.UserID)
	return appendVarint(b, 2, uint64(m.Role))
}

func (m *ModifyMemberRoleAction) Unmarshal(b []byte) error {
	*m = ModifyMemberRoleAction{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBytes(num, typ, b, &m.UserID)
		case 2:
			return consumeUint32(num, typ, b, &m.Role)
		}
		return skip, nil
	})
}

type ModifyTitleAction struct {
	Title []byte
}

func (m *ModifyTitleAction) Marshal() []byte {
	return appendBytes(nil, 1, m.Title)
}

func (m *ModifyTitleAction) Unmarshal(b []byte) error {
	*m = ModifyTitleAction{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip, nil
		}
		return consumeBytes(num, typ, b, &m.Title)
	})
}

type ModifyAvatarAction struct {
	Avatar string
}

func (m *ModifyAvatarAction) Marshal() []byte {
	return appendString(nil, 1, m.Avatar)
}

func (m *ModifyAvatarAction) Unmarshal(b []byte) error {
	*m = ModifyAvatarAction{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip, nil
		}
		return consumeString(num, typ, b, &m.Avatar)
	})
}

type ModifyDisappearingMessagesTimerAction struct {
	Timer []byte
}

func (m *ModifyDisappearingMessagesTimerAction) Marshal() []byte {
	return appendBytes(nil, 1, m.Timer)
}

func (m *ModifyDisappearingMessagesTimerAction) Unmarshal(b []byte) error {
	*m = ModifyDisappearingMessagesTimerAction{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip, nil
		}
		return consumeBytes(num, typ, b, &m.Timer)
	})
}

type ModifyAccessAction struct {
	Access uint32
}

func (m *ModifyAccessAction) Marshal() []byte {
	return appendVarint(nil, 1, uint64(m.Access))
}

func (m *ModifyAccessAction) Unmarshal(b []byte) error {
	*m = ModifyAccessAction{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip, nil
		}
		return consumeUint32(num, typ, b, &m.Access)
	})
}

// GroupChangeActions is one revision's worth of modifications. The client
// sends it unsigned; the server stores it serialized inside a GroupChange
// with its signature.
type GroupChangeActions struct {
	SourceUUID                      []byte
	Revision                        uint32
	AddMembers                      []*AddMemberAction
	DeleteMembers                   []*DeleteMemberAction
	ModifyMemberRoles               []*ModifyMemberRoleAction
	ModifyTitle                     *ModifyTitleAction
	ModifyAvatar                    *ModifyAvatarAction
	ModifyDisappearingMessagesTimer *ModifyDisappearingMessagesTimerAction
	ModifyAttributesAccess          *ModifyAccessAction
	ModifyMemberAccess              *ModifyAccessAction
}

func (m *GroupChangeActions) Marshal() []byte {
	var b []byte
	b = appendBytes(b, 1, m.SourceUUID)
	b = appendVarint(b, 2, uint64(m.Revision))
	for _, a := range m.AddMembers {
		b = appendMessage(b, 3, a)
	}
	for _, a := range m.DeleteMembers {
		b = appendMessage(b, 4, a)
	}
	for _, a := range m.ModifyMemberRoles {
		b = appendMessage(b, 5, a)
	}
	if m.ModifyTitle != nil {
		b = appendMessage(b, 10, m.ModifyTitle)
	}
	if m.ModifyAvatar != nil {
		b = appendMessage(b, 11, m.ModifyAvatar)
	}
	if m.ModifyDisappearingMessagesTimer != nil {
		b = appendMessage(b, 12, m.ModifyDisappearingMessagesTimer)
	}
	if m.ModifyAttributesAccess != nil {
		b = appendMessage(b, 13, m.ModifyAttributesAccess)
	}
	if m.ModifyMemberAccess != nil {
		b = appendMessage(b, 14, m.ModifyMemberAccess)
	}
	return b
}

func (m *GroupChangeActions) Unmarshal(b []byte) error {
	*m = GroupChangeActions{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBytes(num, typ, b, &m.SourceUUID)
		case 2:
			return consumeUint32(num, typ, b, &m.Revision)
		case 3:
			a := &AddMemberAction{}
			n, err := consumeMessage(num, typ, b, a)
			m.AddMembers = append(m.AddMembers, a)
			return n, err
		case 4:
			a := &DeleteMemberAction{}
			n, err := consumeMessage(num, typ, b, a)
			m.DeleteMembers = append(m.DeleteMembers, a)
			return n, err
		case 5:
			a := &ModifyMemberRoleAction{}
			n, err := consumeMessage(num, typ, b, a)
			m.ModifyMemberRoles = append(m.ModifyMemberRoles, a)
			return n, err
		case 10:
			m.ModifyTitle = &ModifyTitleAction{}
			return consumeMessage(num, typ, b, m.ModifyTitle)
		case 11:
			m.ModifyAvatar = &ModifyAvatarAction{}
			return consumeMessage(num, typ, b, m.ModifyAvatar)
		case 12:
			m.ModifyDisappearingMessagesTimer = &ModifyDisappearingMessagesTimerAction{}
			return consumeMessage(num, typ, b, m.ModifyDisappearingMessagesTimer)
		case 13:
			m.ModifyAttributesAccess = &ModifyAccessAction{}
			return consumeMessage(num, typ, b, m.ModifyAttributesAccess)
		case 14:
			m.ModifyMemberAccess = &ModifyAccessAction{}
			return consumeMessage(num, typ, b, m.ModifyMemberAccess)
		}
		return skip, nil
	})
}

// Empty reports whether the actions change nothing.
func (m *GroupChangeActions) Empty() bool {
	return len(m.AddMembers) == 0 && len(m.DeleteMembers) == 0 && len(m.ModifyMemberRoles) == 0 &&
		m.ModifyTitle == nil && m.ModifyAvatar == nil && m.ModifyDisappearingMessagesTimer == nil &&
		m.ModifyAttributesAccess == nil && m.ModifyMemberAccess == nil
}
