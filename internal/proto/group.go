package proto

import "google.golang.org/protobuf/encoding/protowire"

// Role of a group member.
const (
	RoleUnknown       uint32 = 0
	RoleDefault       uint32 = 1
	RoleAdministrator uint32 = 2
)

// AccessRequired levels used by AccessControl.
const (
	AccessUnknown       uint32 = 0
	AccessAny           uint32 = 1
	AccessMember        uint32 = 2
	AccessAdministrator uint32 = 3
	AccessUnsatisfiable uint32 = 4
)

type AccessControl struct {
	Attributes uint32
	Members    uint32
}

func (m *AccessControl) Marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(m.Attributes))
	return appendVarint(b, 2, uint64(m.Members))
}

func (m *AccessControl) Unmarshal(b []byte) error {
	*m = AccessControl{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(num, typ, b, &m.Attributes)
		case 2:
			return consumeUint32(num, typ, b, &m.Members)
		}
		return skip, nil
	})
}

// Member is a group member as stored by the server: the id and profile key
// are group ciphertexts. Presentation is only set in requests that add the
// member.
type Member struct {
	UserID           []byte
	Role             uint32
	ProfileKey       []byte
	Presentation     []byte
	JoinedAtRevision uint32
}

func (m *Member) Marshal() []byte {
	var b []byte
	b = appendBytes(b, 1, m.UserID)
	b = appendVarint(b, 2, uint64(m.Role))
	b = appendBytes(b, 3, m.ProfileKey)
	b = appendBytes(b, 4, m.Presentation)
	return appendVarint(b, 5, uint64(m.JoinedAtRevision))
}

func (m *Member) Unmarshal(b []byte) error {
	*m = Member{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBytes(num, typ, b, &m.UserID)
		case 2:
			return consumeUint32(num, typ, b, &m.Role)
		case 3:
			return consumeBytes(num, typ, b, &m.ProfileKey)
		case 4:
			return consumeBytes(num, typ, b, &m.Presentation)
		case 5:
			return consumeUint32(num, typ, b, &m.JoinedAtRevision)
		}
		return skip, nil
	})
}

// Group is the full server-side group state. Title and timer are encrypted
// GroupAttributeBlob messages; Avatar is the object key of the encrypted
// avatar.
type Group struct {
	PublicKey                 []byte
	Title                     []byte
	Avatar                    string
	DisappearingMessagesTimer []byte
	AccessControl             *AccessControl
	Revision                  uint32
	Members                   []*Member
}

func (m *Group) Marshal() []byte {
	var b []byte
	b = appendBytes(b, 1, m.PublicKey)
	b = appendBytes(b, 2, m.Title)
	b = appendString(b, 3, m.Avatar)
	b = appendBytes(b, 4, m.DisappearingMessagesTimer)
	if m.AccessControl != nil {
		b = appendMessage(b, 5, m.AccessControl)
	}
	b = appendVarint(b, 6, uint64(m.Revision))
	for _, member := range m.Members {
		b = appendMessage(b, 7, member)
	}
	return b
}

func (m *Group) Unmarshal(b []byte) error {
	*m = Group{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBytes(num, typ, b, &m.PublicKey)
		case 2:
			return consumeBytes(num, typ, b, &m.Title)
		case 3:
			return consumeString(num, typ, b, &m.Avatar)
		case 4:
			return consumeBytes(num, typ, b, &m.DisappearingMessagesTimer)
		case 5:
			m.AccessControl = &AccessControl{}
			return consumeMessage(num, typ, b, m.AccessControl)
		case 6:
			return consumeUint32(num, typ, b, &m.Revision)
		case 7:
			member := &Member{}
			n, err := consumeMessage(num, typ, b, member)
			if err == nil {
				m.Members = append(m.Members, member)
			}
			return n, err
		}
		return skip, nil
	})
}

// GroupAttributeBlob is the plaintext of an encrypted group attribute.
// Exactly one field is set.
type GroupAttributeBlob struct {
	Title                        *string
	Avatar                       []byte
	DisappearingMessagesDuration *uint32
}

func (m *GroupAttributeBlob) Marshal() []byte {
	var b []byte
	switch {
	case m.Title != nil:
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, *m.Title)
	case m.Avatar != nil:
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Avatar)
	case m.DisappearingMessagesDuration != nil:
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*m.DisappearingMessagesDuration))
	}
	return b
}

func (m *GroupAttributeBlob) Unmarshal(b []byte) error {
	*m = GroupAttributeBlob{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			var s string
			n, err := consumeString(num, typ, b, &s)
			m.Title = &s
			return n, err
		case 2:
			var v []byte
			n, err := consumeBytes(num, typ, b, &v)
			if v == nil {
				v = []byte{}
			}
			m.Avatar = v
			return n, err
		case 3:
			var v uint32
			n, err := consumeUint32(num, typ, b, &v)
			m.DisappearingMessagesDuration = &v
			return n, err
		}
		return skip, nil
	})
}

// GroupChange is a change confirmed by the server: the serialized actions
// and the server signature over them.
type GroupChange struct {
	Actions         []byte
	ServerSignature []byte
	ChangeEpoch     uint32
}

func (m *GroupChange) Marshal() []byte {
	var b []byte
	b = appendBytes(b, 1, m.Actions)
	b = appendBytes(b, 2, m.ServerSignature)
	return appendVarint(b, 3, uint64(m.ChangeEpoch))
}

func (m *GroupChange) Unmarshal(b []byte) error {
	*m = GroupChange{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBytes(num, typ, b, &m.Actions)
		case 2:
			return consumeBytes(num, typ, b, &m.ServerSignature)
		case 3:
			return consumeUint32(num, typ, b, &m.ChangeEpoch)
		}
		return skip, nil
	})
}

// GroupChangeState pairs a change with the group state after it. The state
// is only present when the server chooses to include it.
type GroupChangeState struct {
	GroupChange *GroupChange
	GroupState  *Group
}

func (m *GroupChangeState) Marshal() []byte {
	var b []byte
	if m.GroupChange != nil {
		b = appendMessage(b, 1, m.GroupChange)
	}
	if m.GroupState != nil {
		b = appendMessage(b, 2, m.GroupState)
	}
	return b
}

func (m *GroupChangeState) Unmarshal(b []byte) error {
	*m = GroupChangeState{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			m.GroupChange = &GroupChange{}
			return consumeMessage(num, typ, b, m.GroupChange)
		case 2:
			m.GroupState = &Group{}
			return consumeMessage(num, typ, b, m.GroupState)
		}
		return skip, nil
	})
}

// GroupChanges is the change log response.
type GroupChanges struct {
	GroupChanges []*GroupChangeState
}

func (m *GroupChanges) Marshal() []byte {
	var b []byte
	for _, c := range m.GroupChanges {
		b = appendMessage(b, 1, c)
	}
	return b
}

func (m *GroupChanges) Unmarshal(b []byte) error {
	*m = GroupChanges{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip, nil
		}
		c := &GroupChangeState{}
		n, err := consumeMessage(num, typ, b, c)
		if err == nil {
			m.GroupChanges = append(m.GroupChanges, c)
		}
		return n, err
	})
}

// AvatarUploadAttributes is returned by the avatar upload form endpoint.
type AvatarUploadAttributes struct {
	Key string
	URL string
}

func (m *AvatarUploadAttributes) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Key)
	return appendString(b, 2, m.URL)
}

func (m *AvatarUploadAttributes) Unmarshal(b []byte) error {
	*m = AvatarUploadAttributes{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(num, typ, b, &m.Key)
		case 2:
			return consumeString(num, typ, b, &m.URL)
		}
		return skip, nil
	})
}
