package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fadilmartias/resume-matcher/internal/model"
	"github.com/fadilmartias/resume-matcher/internal/vector"
)

// Embedding dump file layout, all integers little-endian:
//
//	magic   "RMEB"
//	version uint8
//	model   uint16 length + UTF-8 bytes
//	records until EOF:
//	  kind   uint8 ('J' job, 'R' resume)
//	  id     uint32
//	  dim    uint32
//	  floats dim * 4 bytes, little-endian float32
var dumpMagic = [4]byte{'R', 'M', 'E', 'B'}

const (
	dumpVersion = 1

	recordJob    = 'J'
	recordResume = 'R'
)

// DumpRecord is one vector read back from a dump file.
type DumpRecord struct {
	Kind      byte
	EntityID  uint
	Embedding []float32
}

// WriteEmbeddings serializes all vectors of one model into the dump format.
func WriteEmbeddings(w io.Writer, modelName string, jobs []model.JobEmbedding, resumes []model.ResumeEmbedding) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(dumpMagic[:]); err != nil {
		return err
	}
	if err := bw.WriteByte(dumpVersion); err != nil {
		return err
	}
	if err := writeString(bw, modelName); err != nil {
		return err
	}

	for _, e := range jobs {
		if err := writeRecord(bw, recordJob, e.JobID, e.Embedding.Slice()); err != nil {
			return err
		}
	}
	for _, e := range resumes {
		if err := writeRecord(bw, recordResume, e.ResumeID, e.Embedding.Slice()); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ReadEmbeddings parses a dump file and returns the model name and records.
func ReadEmbeddings(r io.Reader) (string, []DumpRecord, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return "", nil, fmt.Errorf("reading dump header: %w", err)
	}
	if magic != dumpMagic {
		return "", nil, errors.New("not an embedding dump file")
	}

	version, err := br.ReadByte()
	if err != nil {
		return "", nil, fmt.Errorf("reading dump version: %w", err)
	}
	if version != dumpVersion {
		return "", nil, fmt.Errorf("unsupported dump version %d", version)
	}

	modelName, err := readString(br)
	if err != nil {
		return "", nil, fmt.Errorf("reading model name: %w", err)
	}

	var records []DumpRecord
	for {
		kind, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return modelName, records, nil
		}
		if err != nil {
			return "", nil, fmt.Errorf("reading record kind: %w", err)
		}
		if kind != recordJob && kind != recordResume {
			return "", nil, fmt.Errorf("unknown record kind %q", kind)
		}

		var id, dim uint32
		if err := binary.Read(br, binary.LittleEndian, &id); err != nil {
			return "", nil, fmt.Errorf("reading record id: %w", err)
		}
		if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
			return "", nil, fmt.Errorf("reading record dimension: %w", err)
		}

		payload := make([]byte, 4*dim)
		if _, err := io.ReadFull(br, payload); err != nil {
			return "", nil, fmt.Errorf("reading record payload: %w", err)
		}
		vec, err := vector.Decode(payload)
		if err != nil {
			return "", nil, err
		}

		records = append(records, DumpRecord{Kind: kind, EntityID: uint(id), Embedding: vec})
	}
}

// VectorWriter restores dumped vectors into the store.
type VectorWriter interface {
	SaveJob(jobID uint, modelName string, vec []float32) error
	SaveResume(resumeID uint, modelName string, vec []float32) error
}

// RestoreEmbeddings reads a dump and upserts every record under the model
// name recorded in the file. Returns the number of vectors written.
func RestoreEmbeddings(r io.Reader, store VectorWriter) (string, int, error) {
	modelName, records, err := ReadEmbeddings(r)
	if err != nil {
		return "", 0, err
	}

	written := 0
	for _, rec := range records {
		switch rec.Kind {
		case recordJob:
			err = store.SaveJob(rec.EntityID, modelName, rec.Embedding)
		case recordResume:
			err = store.SaveResume(rec.EntityID, modelName, rec.Embedding)
		}
		if err != nil {
			return modelName, written, fmt.Errorf("restoring vector for entity %d: %w", rec.EntityID, err)
		}
		written++
	}
	return modelName, written, nil
}

func writeRecord(w io.Writer, kind byte, id uint, vec []float32) error {
	if _, err := w.Write([]byte{kind}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(id)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vec))); err != nil {
		return err
	}
	_, err := w.Write(vector.Encode(vec))
	return err
}

func writeString(w io.Writer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("string of %d bytes exceeds dump limit", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
