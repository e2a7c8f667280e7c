package loaders

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/core"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string // Usually "1.0"
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the geometry loaded from a PLY file
type PLYData struct {
	Vertices []core.Vec3 // Vertex positions (x, y, z)
	Faces    []int       // Triangle indices (3 per triangle); polygons are fanned
}

// Triangles expands the indexed faces into a vertex soup, three vertices
// per triangle, ready for Scene.AddMesh
func (d *PLYData) Triangles() []core.Vec3 {
	soup := make([]core.Vec3, len(d.Faces))
	for i, index := range d.Faces {
		soup[i] = d.Vertices[index]
	}
	return soup
}

// LoadPLY loads a PLY file. A nil logger discards the load summary.
func LoadPLY(filename string, logger core.Logger) (*PLYData, error) {
	startTime := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open PLY file")
	}
	defer file.Close()

	data, err := ReadPLY(file)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", filename)
	}

	if logger != nil {
		logger.Printf("Loaded PLY data: %d vertices, %d triangles in %v\n",
			len(data.Vertices), len(data.Faces)/3, time.Since(startTime))
	}
	return data, nil
}

// ReadPLY reads ascii or binary little-endian PLY data from r
func ReadPLY(r io.Reader) (*PLYData, error) {
	reader := bufio.NewReaderSize(r, 1024*1024)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse PLY header")
	}

	var data *PLYData
	switch header.Format {
	case "binary_little_endian":
		data, err = readPLYBody(&binaryValues{reader: reader, order: binary.LittleEndian}, header)
	case "ascii":
		data, err = readPLYBody(&asciiValues{reader: reader}, header)
	case "binary_big_endian":
		return nil, errors.Wrap(core.ErrUnsupportedFeature, "binary big-endian PLY format")
	default:
		return nil, errors.Errorf("unsupported PLY format: %q", header.Format)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read PLY data")
	}
	return data, nil
}

// parsePLYHeader parses the header and leaves reader at the first body byte
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var currentElement string

	magic, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, errors.New("missing ply magic number")
	}

	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "header ended before end_header")
		}
		line := strings.TrimSpace(raw)
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, errors.Errorf("invalid element line: %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, errors.Errorf("invalid element count: %s", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			default:
				if count > 0 {
					return nil, errors.Wrapf(core.ErrUnsupportedFeature, "PLY element %q", currentElement)
				}
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse property")
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
	}

	for _, axis := range []string{"x", "y", "z"} {
		if header.VertexCount > 0 && vertexPropIndex(header.VertexProps, axis) < 0 {
			return nil, errors.Errorf("vertex element has no %q property", axis)
		}
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, errors.New("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, errors.New("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

func vertexPropIndex(props []PLYProperty, name string) int {
	for i, prop := range props {
		if prop.Name == name && !prop.IsList {
			return i
		}
	}
	return -1
}

func isFaceIndexList(prop PLYProperty) bool {
	return prop.IsList && (prop.Name == "vertex_indices" || prop.Name == "vertex_index")
}

// plyPreallocLimit caps capacity taken from header and list counts; larger
// elements grow as values are actually read
const plyPreallocLimit = 1 << 16

// plyValues yields the scalar values of a PLY body in file order
type plyValues interface {
	next(dataType string) (float64, error)
	endElement() error
}

// readPLYBody reads vertices then faces, fanning polygons into triangles
func readPLYBody(values plyValues, header *PLYHeader) (*PLYData, error) {
	xi := vertexPropIndex(header.VertexProps, "x")
	yi := vertexPropIndex(header.VertexProps, "y")
	zi := vertexPropIndex(header.VertexProps, "z")

	data := &PLYData{
		Vertices: make([]core.Vec3, 0, min(header.VertexCount, plyPreallocLimit)),
		Faces:    make([]int, 0, 3*min(header.FaceCount, plyPreallocLimit)),
	}

	scalars := make([]float64, len(header.VertexProps))
	for i := 0; i < header.VertexCount; i++ {
		for j, prop := range header.VertexProps {
			if prop.IsList {
				if _, err := readList(values, prop); err != nil {
					return nil, errors.Wrapf(err, "vertex %d", i)
				}
				continue
			}
			v, err := values.next(prop.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "vertex %d property %s", i, prop.Name)
			}
			scalars[j] = v
		}
		if err := values.endElement(); err != nil {
			return nil, errors.Wrapf(err, "vertex %d", i)
		}
		data.Vertices = append(data.Vertices, core.NewVec3(scalars[xi], scalars[yi], scalars[zi]))
	}

	for i := 0; i < header.FaceCount; i++ {
		for _, prop := range header.FaceProps {
			if !prop.IsList {
				if _, err := values.next(prop.Type); err != nil {
					return nil, errors.Wrapf(err, "face %d property %s", i, prop.Name)
				}
				continue
			}

			list, err := readList(values, prop)
			if err != nil {
				return nil, errors.Wrapf(err, "face %d", i)
			}
			if !isFaceIndexList(prop) {
				continue
			}
			if len(list) < 3 {
				return nil, errors.Errorf("face %d has %d vertices", i, len(list))
			}
			for _, index := range list {
				if index < 0 || int(index) >= len(data.Vertices) || index != math.Trunc(index) {
					return nil, errors.Errorf("face %d references vertex %v of %d", i, index, len(data.Vertices))
				}
			}
			for k := 1; k+1 < len(list); k++ {
				data.Faces = append(data.Faces, int(list[0]), int(list[k]), int(list[k+1]))
			}
		}
		if err := values.endElement(); err != nil {
			return nil, errors.Wrapf(err, "face %d", i)
		}
	}

	return data, nil
}

func readList(values plyValues, prop PLYProperty) ([]float64, error) {
	n, err := values.next(prop.ListType)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s count", prop.Name)
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxUint32 {
		return nil, errors.Errorf("invalid list %s count %v", prop.Name, n)
	}
	count := int(n)
	list := make([]float64, 0, min(count, plyPreallocLimit))
	for i := 0; i < count; i++ {
		v, err := values.next(prop.DataType)
		if err != nil {
			return nil, errors.Wrapf(err, "list %s item %d", prop.Name, i)
		}
		list = append(list, v)
	}
	return list, nil
}

// binaryValues decodes fixed-size binary scalars
type binaryValues struct {
	reader io.Reader
	order  binary.ByteOrder
}

func (b *binaryValues) next(dataType string) (float64, error) {
	switch dataType {
	case "float", "float32":
		var v float32
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "double", "float64":
		var v float64
		err := binary.Read(b.reader, b.order, &v)
		return v, err
	case "int", "int32":
		var v int32
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "uint", "uint32":
		var v uint32
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "short", "int16":
		var v int16
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "ushort", "uint16":
		var v uint16
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "char", "int8":
		var v int8
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	case "uchar", "uint8":
		var v uint8
		err := binary.Read(b.reader, b.order, &v)
		return float64(v), err
	}
	return 0, errors.Errorf("unsupported data type: %s", dataType)
}

func (b *binaryValues) endElement() error { return nil }

// asciiValues reads one element per line
type asciiValues struct {
	reader *bufio.Reader
	fields []string
	loaded bool
}

func (a *asciiValues) next(dataType string) (float64, error) {
	if !a.loaded {
		for {
			line, err := a.reader.ReadString('\n')
			a.fields = strings.Fields(line)
			if len(a.fields) > 0 {
				break
			}
			if err != nil {
				return 0, errors.Wrap(io.ErrUnexpectedEOF, "ascii body")
			}
		}
		a.loaded = true
	}
	if len(a.fields) == 0 {
		return 0, errors.New("too few values on line")
	}
	field := a.fields[0]
	a.fields = a.fields[1:]

	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s value %q", dataType, field)
	}
	return v, nil
}

func (a *asciiValues) endElement() error {
	extra := len(a.fields)
	a.fields = nil
	a.loaded = false
	if extra > 0 {
		return errors.Errorf("%d unexpected values on line", extra)
	}
	return nil
}
