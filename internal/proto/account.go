package proto

import "google.golang.org/protobuf/encoding/protowire"

type RegisterAccountRequest struct {
	UUID     string
	Salt     []byte
	Verifier []byte
}

func (m *RegisterAccountRequest) Marshal() []byte {
	b := appendString(nil, 1, m.UUID)
	b = appendBytes(b, 2, m.Salt)
	return appendBytes(b, 3, m.Verifier)
}

func (m *RegisterAccountRequest) Unmarshal(b []byte) error {
	*m = RegisterAccountRequest{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(num, typ, b, &m.UUID)
		case 2:
			return consumeBytes(num, typ, b, &m.Salt)
		case 3:
			return consumeBytes(num, typ, b, &m.Verifier)
		}
		return skip, nil
	})
}

type RegisterAccountResponse struct{}

func (m *RegisterAccountResponse) Marshal() []byte { return nil }

func (m *RegisterAccountResponse) Unmarshal(b []byte) error {
	return unmarshalFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return skip, nil })
}

type GetSaltRequest struct {
	UUID string
}

func (m *GetSaltRequest) Marshal() []byte { return appendString(nil, 1, m.UUID) }

func (m *GetSaltRequest) Unmarshal(b []byte) error {
	*m = GetSaltRequest{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip, nil
		}
		return consumeString(num, typ, b, &m.UUID)
	})
}

type GetSaltResponse struct {
	Salt []byte
}

func (m *GetSaltResponse) Marshal() []byte { return appendBytes(nil, 1, m.Salt) }

func (m *GetSaltResponse) Unmarshal(b []byte) error {
	*m = GetSaltResponse{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip, nil
		}
		return consumeBytes(num, typ, b, &m.Salt)
	})
}

type LoginRequest struct {
	UUID              string
	VerifierCandidate []byte
}

func (m *LoginRequest) Marshal() []byte {
	b := appendString(nil, 1, m.UUID)
	return appendBytes(b, 2, m.VerifierCandidate)
}

func (m *LoginRequest) Unmarshal(b []byte) error {
	*m = LoginRequest{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(num, typ, b, &m.UUID)
		case 2:
			return consumeBytes(num, typ, b, &m.VerifierCandidate)
		}
		return skip, nil
	})
}

type LoginResponse struct{}

func (m *LoginResponse) Marshal() []byte { return nil }

func (m *LoginResponse) Unmarshal(b []byte) error {
	return unmarshalFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return skip, nil })
}

type PingRequest struct{}

func (m *PingRequest) Marshal() []byte { return nil }

func (m *PingRequest) Unmarshal(b []byte) error {
	return unmarshalFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return skip, nil })
}

type PingResponse struct {
	Status string
}

func (m *PingResponse) Marshal() []byte { return appendString(nil, 1, m.Status) }

func (m *PingResponse) Unmarshal(b []byte) error {
	*m = PingResponse{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip, nil
		}
		return consumeString(num, typ, b, &m.Status)
	})
}

// SetProfileRequest publishes the caller's profile under a profile key
// version. Name is encrypted by the client.
type SetProfileRequest struct {
	Version    string
	Commitment []byte
	Name       []byte
}

func (m *SetProfileRequest) Marshal() []byte {
	b := appendString(nil, 1, m.Version)
	b = appendBytes(b, 2, m.Commitment)
	return appendBytes(b, 3, m.Name)
}

func (m *SetProfileRequest) Unmarshal(b []byte) error {
	*m = SetProfileRequest{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(num, typ, b, &m.Version)
		case 2:
			return consumeBytes(num, typ, b, &m.Commitment)
		case 3:
			return consumeBytes(num, typ, b, &m.Name)
		}
		return skip, nil
	})
}

type SetProfileResponse struct{}

func (m *SetProfileResponse) Marshal() []byte { return nil }

func (m *SetProfileResponse) Unmarshal(b []byte) error {
	return unmarshalFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return skip, nil })
}

// GetProfileRequest fetches another user's profile. When Version and
// CredentialRequest are set the server also issues a profile key credential.
type GetProfileRequest struct {
	UUID              string
	Version           string
	CredentialRequest []byte
}

func (m *GetProfileRequest) Marshal() []byte {
	b := appendString(nil, 1, m.UUID)
	b = appendString(b, 2, m.Version)
	return appendBytes(b, 3, m.CredentialRequest)
}

func (m *GetProfileRequest) Unmarshal(b []byte) error {
	*m = GetProfileRequest{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(num, typ, b, &m.UUID)
		case 2:
			return consumeString(num, typ, b, &m.Version)
		case 3:
			return consumeBytes(num, typ, b, &m.CredentialRequest)
		}
		return skip, nil
	})
}

type GetProfileResponse struct {
	Name       []byte
	Credential []byte
}

func (m *GetProfileResponse) Marshal() []byte {
	b := appendBytes(nil, 1, m.Name)
	return appendBytes(b, 2, m.Credential)
}

func (m *GetProfileResponse) Unmarshal(b []byte) error {
	*m = GetProfileResponse{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBytes(num, typ, b, &m.Name)
		case 2:
			return consumeBytes(num, typ, b, &m.Credential)
		}
		return skip, nil
	})
}
