package sale

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/gagliardetto/solana-go"

	"walienPool/internal/custody"
	"walienPool/internal/errs"
	"walienPool/internal/model"
	"walienPool/internal/storage"
)

func (s *Service) loadRecord(r storage.Reader, addr solana.PublicKey, rec model.Record) error {
	acct, err := custody.GetAccount(r, addr)
	if errorsmod.IsOf(err, custody.ErrAccountNotFound) {
		return errorsmod.Wrap(errs.ErrAccountNotInitialized, addr.String())
	}
	if err != nil {
		return err
	}
	if !acct.Owner.Equals(s.addrs.ProgramID) {
		return errorsmod.Wrap(errs.ErrAccountOwnedByWrongProgram, addr.String())
	}
	return model.DecodeRecord(acct.Data, rec)
}

func encodePadded(rec model.Record, space int) ([]byte, error) {
	data, err := model.EncodeRecord(rec)
	if err != nil {
		return nil, errorsmod.Wrap(errs.ErrAccountDidNotSerialize, err.Error())
	}
	if len(data) > space {
		return nil, errorsmod.Wrapf(errs.ErrAccountDidNotSerialize, "record is %d bytes, space is %d", len(data), space)
	}
	out := make([]byte, space)
	copy(out, data)
	return out, nil
}

func (s *Service) createRecord(tx storage.Tx, payer, addr solana.PublicKey, rec model.Record, space int) error {
	data, err := encodePadded(rec, space)
	if err != nil {
		return err
	}
	return custody.CreateAccount(tx, payer, addr, s.addrs.ProgramID, data)
}

func (s *Service) writeRecord(tx storage.Tx, addr solana.PublicKey, rec model.Record, space int) error {
	data, err := encodePadded(rec, space)
	if err != nil {
		return err
	}
	return custody.WriteData(tx, addr, data)
}

// closeRecord deletes the record and refunds its rent to recipient.
func (s *Service) closeRecord(tx storage.Tx, addr, recipient solana.PublicKey) error {
	_, err := custody.CloseAccount(tx, addr, recipient)
	return err
}

func (s *Service) loadPool(r storage.Reader) (model.Pool, error) {
	var pool model.Pool
	if err := s.loadRecord(r, s.addrs.Pool, &pool); err != nil {
		return model.Pool{}, err
	}
	if pool.Bump != s.addrs.Bump {
		return model.Pool{}, errorsmod.Wrapf(errs.ErrConstraintSeeds, "pool bump %d, expected %d", pool.Bump, s.addrs.Bump)
	}
	return pool, nil
}

func (s *Service) storePool(tx storage.Tx, pool *model.Pool) error {
	return s.writeRecord(tx, s.addrs.Pool, pool, model.PoolSpace)
}

func (s *Service) loadPosition(r storage.Reader, index uint64) (solana.PublicKey, model.Position, error) {
	addr, err := PositionAddress(s.addrs.ProgramID, s.addrs.Pool, index)
	if err != nil {
		return solana.PublicKey{}, model.Position{}, err
	}
	var pos model.Position
	if err := s.loadRecord(r, addr, &pos); err != nil {
		return solana.PublicKey{}, model.Position{}, err
	}
	return addr, pos, nil
}

func (s *Service) loadSummary(r storage.Reader, owner solana.PublicKey) (solana.PublicKey, model.Summary, error) {
	addr, err := SummaryAddress(s.addrs.ProgramID, owner)
	if err != nil {
		return solana.PublicKey{}, model.Summary{}, err
	}
	var sum model.Summary
	if err := s.loadRecord(r, addr, &sum); err != nil {
		return solana.PublicKey{}, model.Summary{}, err
	}
	if !sum.Owner.Equals(owner) {
		return solana.PublicKey{}, model.Summary{}, errorsmod.Wrapf(errs.ErrConstraintRaw, "summary %s belongs to %s", addr, sum.Owner)
	}
	return addr, sum, nil
}
