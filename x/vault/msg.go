package vault

import (
	proto "github.com/gogo/protobuf/proto"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
)

func init() {
	for _, m := range []migration.Migratable{
		&InitializeMsg{},
		&DepositMsg{},
		&WithdrawMsg{},
		&SetDepositFeeMsg{},
		&SetYieldRateMsg{},
		&ClaimYieldMsg{},
		&SetWithdrawalDelayMsg{},
		&RequestWithdrawalMsg{},
		&ExecuteWithdrawalMsg{},
		&CancelWithdrawalMsg{},
		&EmergencyWithdrawMsg{},
		&SetPausedMsg{},
		&UpgradeMsg{},
	} {
		migration.MustRegister(V1, m, migration.NoModification)
		migration.MustRegister(V2, m, migration.NoModification)
		migration.MustRegister(V3, m, migration.NoModification)
	}
}

// InitializeMsg asks to initialize the vault. Initialization of a deployed
// vault logic is disabled, this message is always rejected.
type InitializeMsg struct {
	Metadata      *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Token         string               `protobuf:"bytes,2,opt,name=token,proto3" json:"token,omitempty"`
	Admin         tokenvault.Address   `protobuf:"bytes,3,opt,name=admin,proto3,casttype=github.com/iov-one/tokenvault.Address" json:"admin,omitempty"`
	DepositFeeBps uint32               `protobuf:"varint,4,opt,name=deposit_fee_bps,json=depositFeeBps,proto3" json:"deposit_fee_bps,omitempty"`
}

func (m *InitializeMsg) Reset()         { *m = InitializeMsg{} }
func (m *InitializeMsg) String() string { return proto.CompactTextString(m) }
func (*InitializeMsg) ProtoMessage()    {}

func (m *InitializeMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (InitializeMsg) Path() string { return "vault/initialize" }

// DepositMsg moves funds of the signer into the vault.
type DepositMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Amount   *coin.Coin           `protobuf:"bytes,2,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *DepositMsg) Reset()         { *m = DepositMsg{} }
func (m *DepositMsg) String() string { return proto.CompactTextString(m) }
func (*DepositMsg) ProtoMessage()    {}

func (m *DepositMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (DepositMsg) Path() string { return "vault/deposit" }

// WithdrawMsg immediately withdraws funds of the signer. Not available
// since V3.
type WithdrawMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Amount   *coin.Coin           `protobuf:"bytes,2,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *WithdrawMsg) Reset()         { *m = WithdrawMsg{} }
func (m *WithdrawMsg) String() string { return proto.CompactTextString(m) }
func (*WithdrawMsg) ProtoMessage()    {}

func (m *WithdrawMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (WithdrawMsg) Path() string { return "vault/withdraw" }

// SetDepositFeeMsg changes the deposit fee rate.
type SetDepositFeeMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	FeeBps   uint32               `protobuf:"varint,2,opt,name=fee_bps,json=feeBps,proto3" json:"fee_bps,omitempty"`
}

func (m *SetDepositFeeMsg) Reset()         { *m = SetDepositFeeMsg{} }
func (m *SetDepositFeeMsg) String() string { return proto.CompactTextString(m) }
func (*SetDepositFeeMsg) ProtoMessage()    {}

func (m *SetDepositFeeMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (SetDepositFeeMsg) Path() string { return "vault/set_deposit_fee" }

// SetYieldRateMsg changes the yearly yield rate.
type SetYieldRateMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	RateBps  uint32               `protobuf:"varint,2,opt,name=rate_bps,json=rateBps,proto3" json:"rate_bps,omitempty"`
}

func (m *SetYieldRateMsg) Reset()         { *m = SetYieldRateMsg{} }
func (m *SetYieldRateMsg) String() string { return proto.CompactTextString(m) }
func (*SetYieldRateMsg) ProtoMessage()    {}

func (m *SetYieldRateMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (SetYieldRateMsg) Path() string { return "vault/set_yield_rate" }

// ClaimYieldMsg credits the accrued yield of the signer to its balance.
type ClaimYieldMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
}

func (m *ClaimYieldMsg) Reset()         { *m = ClaimYieldMsg{} }
func (m *ClaimYieldMsg) String() string { return proto.CompactTextString(m) }
func (*ClaimYieldMsg) ProtoMessage()    {}

func (m *ClaimYieldMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (ClaimYieldMsg) Path() string { return "vault/claim_yield" }

// SetWithdrawalDelayMsg changes the withdrawal delay.
type SetWithdrawalDelayMsg struct {
	Metadata *tokenvault.Metadata    `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Delay    tokenvault.UnixDuration `protobuf:"varint,2,opt,name=delay,proto3,casttype=github.com/iov-one/tokenvault.UnixDuration" json:"delay,omitempty"`
}

func (m *SetWithdrawalDelayMsg) Reset()         { *m = SetWithdrawalDelayMsg{} }
func (m *SetWithdrawalDelayMsg) String() string { return proto.CompactTextString(m) }
func (*SetWithdrawalDelayMsg) ProtoMessage()    {}

func (m *SetWithdrawalDelayMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (SetWithdrawalDelayMsg) Path() string { return "vault/set_withdrawal_delay" }

// RequestWithdrawalMsg starts a delayed withdrawal.
type RequestWithdrawalMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Amount   *coin.Coin           `protobuf:"bytes,2,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *RequestWithdrawalMsg) Reset()         { *m = RequestWithdrawalMsg{} }
func (m *RequestWithdrawalMsg) String() string { return proto.CompactTextString(m) }
func (*RequestWithdrawalMsg) ProtoMessage()    {}

func (m *RequestWithdrawalMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (RequestWithdrawalMsg) Path() string { return "vault/request_withdrawal" }

// ExecuteWithdrawalMsg pays out a matured withdrawal request.
type ExecuteWithdrawalMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
}

func (m *ExecuteWithdrawalMsg) Reset()         { *m = ExecuteWithdrawalMsg{} }
func (m *ExecuteWithdrawalMsg) String() string { return proto.CompactTextString(m) }
func (*ExecuteWithdrawalMsg) ProtoMessage()    {}

func (m *ExecuteWithdrawalMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (ExecuteWithdrawalMsg) Path() string { return "vault/execute_withdrawal" }

// CancelWithdrawalMsg drops the pending withdrawal request.
type CancelWithdrawalMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
}

func (m *CancelWithdrawalMsg) Reset()         { *m = CancelWithdrawalMsg{} }
func (m *CancelWithdrawalMsg) String() string { return proto.CompactTextString(m) }
func (*CancelWithdrawalMsg) ProtoMessage()    {}

func (m *CancelWithdrawalMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (CancelWithdrawalMsg) Path() string { return "vault/cancel_withdrawal" }

// EmergencyWithdrawMsg withdraws the whole balance of the signer without
// any delay.
type EmergencyWithdrawMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
}

func (m *EmergencyWithdrawMsg) Reset()         { *m = EmergencyWithdrawMsg{} }
func (m *EmergencyWithdrawMsg) String() string { return proto.CompactTextString(m) }
func (*EmergencyWithdrawMsg) ProtoMessage()    {}

func (m *EmergencyWithdrawMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (EmergencyWithdrawMsg) Path() string { return "vault/emergency_withdraw" }

// SetPausedMsg pauses or resumes the vault.
type SetPausedMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Paused   bool                 `protobuf:"varint,2,opt,name=paused,proto3" json:"paused,omitempty"`
}

func (m *SetPausedMsg) Reset()         { *m = SetPausedMsg{} }
func (m *SetPausedMsg) String() string { return proto.CompactTextString(m) }
func (*SetPausedMsg) ProtoMessage()    {}

func (m *SetPausedMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (SetPausedMsg) Path() string { return "vault/set_paused" }

// UpgradeMsg activates the next version of the vault logic.
type UpgradeMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Version  uint32               `protobuf:"varint,2,opt,name=version,proto3" json:"version,omitempty"`
}

func (m *UpgradeMsg) Reset()         { *m = UpgradeMsg{} }
func (m *UpgradeMsg) String() string { return proto.CompactTextString(m) }
func (*UpgradeMsg) ProtoMessage()    {}

func (m *UpgradeMsg) GetMetadata() *tokenvault.Metadata { return m.Metadata }

func (UpgradeMsg) Path() string { return "vault/upgrade" }

// validateAmount returns ErrInvalidParameter unless the amount is positive
// and well formed.
func validateAmount(amount *coin.Coin) error {
	if coin.IsEmpty(amount) {
		return errors.Wrap(errors.ErrInvalidParameter, "must be positive")
	}
	return amount.Validate()
}

func (m *InitializeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !coin.IsCC(m.Token) {
		errs = errors.AppendField(errs, "Token", errors.Wrapf(errors.ErrInvalidParameter, "invalid ticker %q", m.Token))
	}
	errs = errors.AppendField(errs, "Admin", m.Admin.Validate())
	errs = errors.AppendField(errs, "DepositFeeBps", validateBps(m.DepositFeeBps))
	return errs
}

func (m *DepositMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Amount", validateAmount(m.Amount))
	return errs
}

func (m *WithdrawMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Amount", validateAmount(m.Amount))
	return errs
}

func (m *SetDepositFeeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "FeeBps", validateBps(m.FeeBps))
	return errs
}

func (m *SetYieldRateMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "RateBps", validateBps(m.RateBps))
	return errs
}

func (m *ClaimYieldMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}

func (m *SetWithdrawalDelayMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Delay", validateDelay(m.Delay))
	return errs
}

func (m *RequestWithdrawalMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Amount", validateAmount(m.Amount))
	return errs
}

func (m *ExecuteWithdrawalMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}

func (m *CancelWithdrawalMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}

func (m *EmergencyWithdrawMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}

func (m *SetPausedMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}

func (m *UpgradeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if m.Version <= V1 {
		errs = errors.AppendField(errs, "Version", errors.Wrap(errors.ErrInput, "upgrade target must be greater than one"))
	}
	return errs
}
