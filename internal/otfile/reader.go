package otfile

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"vehicle-tracker-go/internal/frame"
)

// Расширения файлов
const (
	DetectionsSuffix = ".otdet"
	JSONSuffix       = ".json"
	TracksSuffix     = ".ottrk"
)

var (
	// ErrUnsupportedFile неподдерживаемое расширение файла
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrInvalidFile файл не является корректным JSON нужной структуры
	ErrInvalidFile = errors.New("invalid detection file")
)

var bzip2Magic = []byte("BZh")

// Recording содержимое одного файла детекций
type Recording struct {
	Path     string
	Metadata json.RawMessage
	Data     gjson.Result
}

// Reader читает файлы детекций
type Reader struct {
	logger *logrus.Logger
}

// NewReader создает новый Reader
func NewReader(logger *logrus.Logger) *Reader {
	return &Reader{logger: logger}
}

// ReadRecording читает файл целиком: метаданные и данные кадров
func (r *Reader) ReadRecording(path string) (*Recording, error) {
	content, err := r.readDocument(path)
	if err != nil {
		return nil, err
	}

	metadata := gjson.GetBytes(content, frame.KeyMetadata)
	if !metadata.IsObject() {
		return nil, errors.Wrapf(ErrInvalidFile, "%s: %q is missing", path, frame.KeyMetadata)
	}
	data := gjson.GetBytes(content, frame.KeyData)
	if !data.IsObject() {
		return nil, errors.Wrapf(ErrInvalidFile, "%s: %q is missing", path, frame.KeyData)
	}

	return &Recording{
		Path:     path,
		Metadata: json.RawMessage(metadata.Raw),
		Data:     data,
	}, nil
}

// ReadMetadata читает только поддерево metadata без разбора детекций
func (r *Reader) ReadMetadata(path string) (json.RawMessage, error) {
	content, err := r.readDocument(path)
	if err != nil {
		return nil, err
	}

	metadata := gjson.GetBytes(content, frame.KeyMetadata)
	if !metadata.IsObject() {
		return nil, errors.Wrapf(ErrInvalidFile, "%s: %q is missing", path, frame.KeyMetadata)
	}
	return json.RawMessage(metadata.Raw), nil
}

func (r *Reader) readDocument(path string) ([]byte, error) {
	suffix := strings.ToLower(filepath.Ext(path))
	if suffix != DetectionsSuffix && suffix != JSONSuffix {
		return nil, errors.Wrapf(ErrUnsupportedFile, "%s: suffix %q, expected %s or %s", path, suffix, DetectionsSuffix, JSONSuffix)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open detection file")
	}
	defer file.Close()

	buffered := bufio.NewReader(file)
	var source io.Reader = buffered
	if magic, err := buffered.Peek(len(bzip2Magic)); err == nil && bytes.Equal(magic, bzip2Magic) {
		source = bzip2.NewReader(buffered)
	}

	content, err := io.ReadAll(source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	if !gjson.ValidBytes(content) {
		return nil, errors.Wrapf(ErrInvalidFile, "%s: malformed JSON", path)
	}

	r.logger.Debugf("Прочитан файл %s (%d байт)", path, len(content))
	return content, nil
}
