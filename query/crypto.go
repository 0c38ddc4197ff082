// eTAO - Encrypted TAO Graph Query Engine
// Copyright (C) 2025 eTAO-project
//
// This file is part of eTAO.
//
// eTAO is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// eTAO is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with eTAO. If not, see <https://www.gnu.org/licenses/>.

package query

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"

	"github.com/miscreant/miscreant.go"
	"golang.org/x/crypto/hkdf"

	"github.com/etao-project/etao/internal/metrics"
	"github.com/etao-project/etao/ope"
)

// sivKeyInfo labels the HKDF derivation of the AES-SIV key from the
// configured key material.
const sivKeyInfo = "etao/det-aead v1"

// emptyAD is the associated data for every seal and open. Keeping it fixed
// to the empty string makes equal plaintexts produce equal ciphertexts
// across rows, which the SQL equality predicates rely on.
var emptyAD = []byte{}

// TaoCrypto routes each query field to its encryption scheme: identifiers
// and type tags through the deterministic AEAD (base64-wrapped for TEXT
// storage), timestamps through OPE, numeric non-sensitive fields unchanged.
// With encryption disabled it still canonicalizes queries into wire form so
// the storage layer sees a single parameter shape.
//
// The AEAD handle and OPE instance are immutable after construction and
// safe for concurrent use.
type TaoCrypto struct {
	ope     *ope.OPE
	aead    *miscreant.Cipher
	enabled bool
}

// NewTaoCrypto derives the cipher handles from the configured key strings.
func NewTaoCrypto(opeKey, aesKey string, cacheSize int, enabled bool) (*TaoCrypto, error) {
	o, err := ope.NewDefault([]byte(opeKey), cacheSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	// AES-SIV-256 takes a double-length key; stretch the configured key
	// material to 64 bytes with HKDF-SHA256.
	kdf := hkdf.New(sha256.New, []byte(aesKey), nil, []byte(sivKeyInfo))
	sivKey := make([]byte, 64)
	if _, err := io.ReadFull(kdf, sivKey); err != nil {
		return nil, fmt.Errorf("%w: failed to derive AEAD key: %v", ErrCrypto, err)
	}
	aead, err := miscreant.NewAESCMACSIV(sivKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize AEAD: %v", ErrCrypto, err)
	}

	return &TaoCrypto{ope: o, aead: aead, enabled: enabled}, nil
}

// Enabled reports whether field encryption is active.
func (tc *TaoCrypto) Enabled() bool { return tc.enabled }

// EncryptString seals a string field and wraps it in unpadded base64 for
// TEXT storage. Identical plaintexts yield identical ciphertexts.
func (tc *TaoCrypto) EncryptString(s string) (string, error) {
	ct, err := tc.aead.Seal(nil, []byte(s), emptyAD)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return base64.RawStdEncoding.EncodeToString(ct), nil
}

// DecryptString inverts EncryptString.
func (tc *TaoCrypto) DecryptString(s string) (string, error) {
	ct, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding: %v", ErrCrypto, err)
	}
	pt, err := tc.aead.Open(nil, ct, emptyAD)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return string(pt), nil
}

// EncryptID seals an integer identifier through its decimal form.
func (tc *TaoCrypto) EncryptID(id uint64) (string, error) {
	return tc.EncryptString(strconv.FormatUint(id, 10))
}

// EncryptTime maps a timestamp through OPE so range predicates and ORDER BY
// survive encryption.
func (tc *TaoCrypto) EncryptTime(t int64) (int64, error) {
	if t < 0 {
		return 0, fmt.Errorf("%w: timestamp %d", ope.ErrOutOfRange, t)
	}
	c, err := tc.ope.Encrypt(uint64(t))
	if err != nil {
		metrics.OPEEncryptions.WithLabelValues("error").Inc()
		return 0, err
	}
	metrics.OPEEncryptions.WithLabelValues("ok").Inc()
	return int64(c), nil
}

// DecryptTime inverts EncryptTime.
func (tc *TaoCrypto) DecryptTime(t int64) (int64, error) {
	if t < 0 {
		return 0, fmt.Errorf("%w: ciphertext %d", ope.ErrOutOfRange, t)
	}
	p, err := tc.ope.Decrypt(uint64(t))
	if err != nil {
		return 0, err
	}
	return int64(p), nil
}

func (tc *TaoCrypto) wireID(id uint64) (string, error) {
	if !tc.enabled {
		return strconv.FormatUint(id, 10), nil
	}
	return tc.EncryptID(id)
}

func (tc *TaoCrypto) wireTag(tag string) (string, error) {
	if !tc.enabled {
		return tag, nil
	}
	return tc.EncryptString(tag)
}

func (tc *TaoCrypto) wireData(data string) (string, error) {
	if !tc.enabled {
		return data, nil
	}
	return tc.EncryptString(data)
}

func (tc *TaoCrypto) wireTime(t int64) (int64, error) {
	if !tc.enabled {
		return t, nil
	}
	return tc.EncryptTime(t)
}

func (tc *TaoCrypto) wireIDSet(ids []uint64) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		s, err := tc.wireID(id)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// EncryptQuery replaces the argument variant of q with its wire form.
func (tc *TaoCrypto) EncryptQuery(q Query) (Query, error) {
	switch a := q.Args.(type) {
	case AssocAddArgs:
		id1, err := tc.wireID(a.ID1)
		if err != nil {
			return Query{}, err
		}
		atype, err := tc.wireTag(a.AType.String())
		if err != nil {
			return Query{}, err
		}
		id2, err := tc.wireID(a.ID2)
		if err != nil {
			return Query{}, err
		}
		t, err := tc.wireTime(a.Time)
		if err != nil {
			return Query{}, err
		}
		data, err := tc.wireData(a.Data)
		if err != nil {
			return Query{}, err
		}
		return Query{Op: q.Op, Args: EncAssocAddArgs{ID1: id1, AType: atype, ID2: id2, Time: t, Data: data}}, nil

	case AssocGetArgs:
		id, err := tc.wireID(a.ID)
		if err != nil {
			return Query{}, err
		}
		atype, err := tc.wireTag(a.AType.String())
		if err != nil {
			return Query{}, err
		}
		idset, err := tc.wireIDSet(a.IDSet)
		if err != nil {
			return Query{}, err
		}
		return Query{Op: q.Op, Args: EncAssocGetArgs{ID: id, AType: atype, IDSet: idset}}, nil

	case AssocRangeGetArgs:
		id, err := tc.wireID(a.ID)
		if err != nil {
			return Query{}, err
		}
		atype, err := tc.wireTag(a.AType.String())
		if err != nil {
			return Query{}, err
		}
		idset, err := tc.wireIDSet(a.IDSet)
		if err != nil {
			return Query{}, err
		}
		tlo, err := tc.wireTime(a.TStart)
		if err != nil {
			return Query{}, err
		}
		thi, err := tc.wireTime(a.TEnd)
		if err != nil {
			return Query{}, err
		}
		return Query{Op: q.Op, Args: EncAssocRangeGetArgs{ID: id, AType: atype, IDSet: idset, TStart: tlo, TEnd: thi}}, nil

	case AssocCountArgs:
		id, err := tc.wireID(a.ID)
		if err != nil {
			return Query{}, err
		}
		atype, err := tc.wireTag(a.AType.String())
		if err != nil {
			return Query{}, err
		}
		return Query{Op: q.Op, Args: EncAssocCountArgs{ID: id, AType: atype}}, nil

	case AssocRangeArgs:
		id, err := tc.wireID(a.ID)
		if err != nil {
			return Query{}, err
		}
		atype, err := tc.wireTag(a.AType.String())
		if err != nil {
			return Query{}, err
		}
		tlo, err := tc.wireTime(a.TStart)
		if err != nil {
			return Query{}, err
		}
		thi, err := tc.wireTime(a.TEnd)
		if err != nil {
			return Query{}, err
		}
		// lim stays in the clear; it never reaches a ciphertext column.
		return Query{Op: q.Op, Args: EncAssocRangeArgs{ID: id, AType: atype, TStart: tlo, TEnd: thi, Lim: a.Lim}}, nil

	case ObjAddArgs:
		id, err := tc.wireID(a.ID)
		if err != nil {
			return Query{}, err
		}
		otype, err := tc.wireTag(a.OType.String())
		if err != nil {
			return Query{}, err
		}
		data, err := tc.wireData(a.Data)
		if err != nil {
			return Query{}, err
		}
		return Query{Op: q.Op, Args: EncObjAddArgs{ID: id, OType: otype, Data: data}}, nil

	case ObjGetArgs:
		id, err := tc.wireID(a.ID)
		if err != nil {
			return Query{}, err
		}
		return Query{Op: q.Op, Args: EncObjGetArgs{ID: id}}, nil

	default:
		// Unsupported ops carry no arguments to transform.
		return q, nil
	}
}

// DecryptRow inverts the field routing on a result row. A row that fails
// to decrypt degrades to NoRes instead of dropping from the response.
func (tc *TaoCrypto) DecryptRow(row DBRow) DBRow {
	if !tc.enabled {
		return row
	}
	switch r := row.(type) {
	case AssocRow:
		id1, err := tc.DecryptString(r.ID1)
		if err != nil {
			return NoRes{}
		}
		atype, err := tc.DecryptString(r.AType)
		if err != nil {
			return NoRes{}
		}
		id2, err := tc.DecryptString(r.ID2)
		if err != nil {
			return NoRes{}
		}
		t, err := tc.DecryptTime(r.T)
		if err != nil {
			return NoRes{}
		}
		data, err := tc.DecryptString(r.Data)
		if err != nil {
			return NoRes{}
		}
		return AssocRow{ID1: id1, AType: atype, ID2: id2, T: t, Data: data}

	case ObjRow:
		id, err := tc.DecryptString(r.ID)
		if err != nil {
			return NoRes{}
		}
		otype, err := tc.DecryptString(r.OType)
		if err != nil {
			return NoRes{}
		}
		data, err := tc.DecryptString(r.Data)
		if err != nil {
			return NoRes{}
		}
		return ObjRow{ID: id, OType: otype, Data: data}

	default:
		// Count and NoRes pass through unchanged.
		return row
	}
}

// DecryptRows applies DecryptRow to every row of a result set.
func (tc *TaoCrypto) DecryptRows(rows []DBRow) []DBRow {
	if !tc.enabled {
		return rows
	}
	out := make([]DBRow, len(rows))
	for i, r := range rows {
		out[i] = tc.DecryptRow(r)
	}
	return out
}

// Wire-form argument variants. Identifier and tag fields hold base64
// deterministic ciphertexts (or canonical decimal/display strings when
// encryption is off); timestamps hold OPE ciphertexts.

// EncAssocAddArgs is the wire form of AssocAddArgs.
type EncAssocAddArgs struct {
	ID1   string
	AType string
	ID2   string
	Time  int64
	Data  string
}

func (a EncAssocAddArgs) params() []any {
	return []any{a.ID1, a.AType, a.ID2, a.Time, a.Data}
}

// EncAssocGetArgs is the wire form of AssocGetArgs.
type EncAssocGetArgs struct {
	ID    string
	AType string
	IDSet []string
}

func (a EncAssocGetArgs) params() []any {
	out := []any{a.ID, a.AType}
	for _, id := range a.IDSet {
		out = append(out, id)
	}
	return out
}

func (a EncAssocGetArgs) idsetLen() int { return len(a.IDSet) }

// EncAssocRangeGetArgs is the wire form of AssocRangeGetArgs.
type EncAssocRangeGetArgs struct {
	ID     string
	AType  string
	IDSet  []string
	TStart int64
	TEnd   int64
}

func (a EncAssocRangeGetArgs) params() []any {
	out := []any{a.ID, a.AType, a.TStart, a.TEnd}
	for _, id := range a.IDSet {
		out = append(out, id)
	}
	return out
}

func (a EncAssocRangeGetArgs) idsetLen() int { return len(a.IDSet) }

// EncAssocCountArgs is the wire form of AssocCountArgs.
type EncAssocCountArgs struct {
	ID    string
	AType string
}

func (a EncAssocCountArgs) params() []any {
	return []any{a.ID, a.AType}
}

// EncAssocRangeArgs is the wire form of AssocRangeArgs.
type EncAssocRangeArgs struct {
	ID     string
	AType  string
	TStart int64
	TEnd   int64
	Lim    int64
}

func (a EncAssocRangeArgs) params() []any {
	return []any{a.ID, a.AType, a.TStart, a.TEnd, a.Lim}
}

// EncObjAddArgs is the wire form of ObjAddArgs.
type EncObjAddArgs struct {
	ID    string
	OType string
	Data  string
}

func (a EncObjAddArgs) params() []any {
	return []any{a.ID, a.OType, a.Data}
}

// EncObjGetArgs is the wire form of ObjGetArgs.
type EncObjGetArgs struct {
	ID string
}

func (a EncObjGetArgs) params() []any {
	return []any{a.ID}
}
