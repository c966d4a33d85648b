package vault

import (
	"fmt"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
)

const packageName = "vault"

// Versions of the vault logic. Each version is also the schema version of
// the vault package.
const (
	// V1 provides deposits with a fee and direct withdrawals.
	V1 uint32 = 1
	// V2 adds the yield accrual.
	V2 uint32 = 2
	// V3 replaces direct withdrawals with delayed withdrawal requests and
	// adds the emergency withdrawal.
	V3 uint32 = 3

	// LatestVersion is the highest version this code implements.
	LatestVersion = V3
)

// VersionName returns the human readable name of a logic version.
func VersionName(v uint32) string {
	return fmt.Sprintf("V%d", v)
}

// layoutModels returns all persisted models that exist in given version.
func layoutModels(version uint32) []interface{} {
	models := []interface{}{&Configuration{}, &Account{}}
	if version >= V3 {
		models = append(models, &WithdrawalRequest{})
	}
	return models
}

// Initialize creates the vault. It can be executed only once during the
// lifetime of the vault. The vault starts with the current schema version
// of the package, version one if not initialized yet.
func Initialize(ctx tokenvault.Context, db tokenvault.KVStore, token string, admin tokenvault.Address, feeBps uint32) error {
	switch _, err := loadConfig(db); {
	case err == nil:
		return errors.Wrap(errors.ErrAlreadyInitialized, "vault exists")
	case !errors.ErrNotFound.Is(err):
		return err
	}

	var errs error
	if !coin.IsCC(token) {
		errs = errors.AppendField(errs, "Token", errors.Wrapf(errors.ErrInvalidParameter, "invalid ticker %q", token))
	}
	if err := admin.Validate(); err != nil {
		errs = errors.AppendField(errs, "Admin", errors.Wrap(errors.ErrInvalidParameter, err.Error()))
	}
	errs = errors.AppendField(errs, "DepositFeeRateBps", validateBps(feeBps))
	if errs != nil {
		return errs
	}

	schema := migration.NewSchemaBucket()
	ver, err := schema.CurrentSchema(db, packageName)
	if errors.ErrNotFound.Is(err) {
		migration.MustInitPkg(db, packageName)
		ver, err = V1, nil
	}
	if err != nil {
		return errors.Wrap(err, "schema")
	}
	if ver > LatestVersion {
		return errors.Wrapf(errors.ErrSchema, "schema %d not supported", ver)
	}

	if err := migration.NewLayoutBucket().Upgrade(db, ver, layoutModels(ver)...); err != nil {
		return errors.Wrap(err, "layout")
	}

	total, fees := coin.Zero(token), coin.Zero(token)
	c := &Configuration{
		Metadata:           &tokenvault.Metadata{Schema: ver},
		Token:              token,
		Admin:              admin,
		DepositFeeRateBps:  feeBps,
		TotalDeposits:      &total,
		CollectedFees:      &fees,
		InitializedVersion: ver,
	}
	if ver >= V2 {
		now, err := tokenvault.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		c.YieldCheckpoint = now
	}
	if err := saveConfig(db, c); err != nil {
		return errors.Wrap(err, "save configuration")
	}
	tokenvault.GetLogger(ctx).Info("vault initialized",
		"token", token, "admin", admin, "fee_bps", feeBps, "version", VersionName(ver))
	return nil
}

// Upgrade activates the next version of the vault logic. The layout of all
// persisted models is checked against the stored one before the schema
// version is increased. The configuration is migrated immediately, all
// other models are migrated when read.
func Upgrade(ctx tokenvault.Context, db tokenvault.KVStore, version uint32) error {
	schema := migration.NewSchemaBucket()
	current, err := schema.CurrentSchema(db, packageName)
	if err != nil {
		return errors.Wrap(err, "current schema")
	}
	if version != current+1 {
		return errors.Wrapf(errors.ErrSchema, "cannot upgrade from %s to %s", VersionName(current), VersionName(version))
	}
	if version > LatestVersion {
		return errors.Wrapf(errors.ErrSchema, "%s is not implemented", VersionName(version))
	}

	c, err := loadConfig(db)
	if err != nil {
		return err
	}
	if err := migration.NewLayoutBucket().Upgrade(db, version, layoutModels(version)...); err != nil {
		return errors.Wrap(err, "layout")
	}
	if _, err := schema.Bump(db, packageName); err != nil {
		return errors.Wrap(err, "bump schema")
	}
	if err := upgradeConfig(ctx, c, version); err != nil {
		return err
	}
	if err := saveConfig(db, c); err != nil {
		return errors.Wrap(err, "save configuration")
	}
	tokenvault.GetLogger(ctx).Info("vault upgraded",
		"from", VersionName(current), "to", VersionName(version))
	return nil
}

// upgradeConfig initializes the configuration fields introduced by given
// version.
func upgradeConfig(ctx tokenvault.Context, c *Configuration, version uint32) error {
	switch version {
	case V2:
		now, err := tokenvault.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		c.YieldRateBps = 0
		c.YieldIndex = nil
		c.YieldCheckpoint = now
	case V3:
		c.WithdrawalDelay = 0
	}
	c.Metadata.Schema = version
	return nil
}
