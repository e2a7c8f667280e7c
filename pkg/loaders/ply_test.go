package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/core"
)

type testLogger struct {
	lines []string
}

func (l *testLogger) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, format)
}

// createTestPLY creates a binary square made of two triangles, optionally
// with extra per-vertex properties the loader must skip
func createTestPLY(t *testing.T, filename string, includeNormals bool, includeColors bool) {
	var buf bytes.Buffer

	buf.WriteString("ply\n")
	buf.WriteString("format binary_little_endian 1.0\n")
	buf.WriteString("comment square\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")

	if includeNormals {
		buf.WriteString("property float nx\n")
		buf.WriteString("property float ny\n")
		buf.WriteString("property float nz\n")
	}

	if includeColors {
		buf.WriteString("property uchar red\n")
		buf.WriteString("property uchar green\n")
		buf.WriteString("property uchar blue\n")
	}

	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	vertices := []struct {
		x, y, z    float32
		nx, ny, nz float32
		r, g, b    uint8
	}{
		{0.0, 0.0, 0.0, 0.0, 0.0, 1.0, 255, 0, 0},
		{1.0, 0.0, 0.0, 0.0, 0.0, 1.0, 0, 255, 0},
		{1.0, 1.0, 0.0, 0.0, 0.0, 1.0, 0, 0, 255},
		{0.0, 1.0, 0.0, 0.0, 0.0, 1.0, 255, 255, 0},
	}

	for _, v := range vertices {
		binary.Write(&buf, binary.LittleEndian, v.x)
		binary.Write(&buf, binary.LittleEndian, v.y)
		binary.Write(&buf, binary.LittleEndian, v.z)

		if includeNormals {
			binary.Write(&buf, binary.LittleEndian, v.nx)
			binary.Write(&buf, binary.LittleEndian, v.ny)
			binary.Write(&buf, binary.LittleEndian, v.nz)
		}

		if includeColors {
			binary.Write(&buf, binary.LittleEndian, v.r)
			binary.Write(&buf, binary.LittleEndian, v.g)
			binary.Write(&buf, binary.LittleEndian, v.b)
		}
	}

	faces := []struct {
		count      uint8
		v1, v2, v3 int32
	}{
		{3, 0, 1, 2},
		{3, 0, 2, 3},
	}

	for _, f := range faces {
		binary.Write(&buf, binary.LittleEndian, f.count)
		binary.Write(&buf, binary.LittleEndian, f.v1)
		binary.Write(&buf, binary.LittleEndian, f.v2)
		binary.Write(&buf, binary.LittleEndian, f.v3)
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to create test PLY file: %v", err)
	}
}

var squareVertices = []core.Vec3{
	core.NewVec3(0.0, 0.0, 0.0),
	core.NewVec3(1.0, 0.0, 0.0),
	core.NewVec3(1.0, 1.0, 0.0),
	core.NewVec3(0.0, 1.0, 0.0),
}

func checkSquare(t *testing.T, data *PLYData) {
	t.Helper()
	if len(data.Vertices) != len(squareVertices) {
		t.Fatalf("Expected %d vertices, got %d", len(squareVertices), len(data.Vertices))
	}
	for i, expected := range squareVertices {
		if data.Vertices[i] != expected {
			t.Errorf("Vertex %d: expected %v, got %v", i, expected, data.Vertices[i])
		}
	}

	expectedFaces := []int{0, 1, 2, 0, 2, 3}
	if len(data.Faces) != len(expectedFaces) {
		t.Fatalf("Expected %d face indices, got %d", len(expectedFaces), len(data.Faces))
	}
	for i, expected := range expectedFaces {
		if data.Faces[i] != expected {
			t.Errorf("Face index %d: expected %d, got %d", i, expected, data.Faces[i])
		}
	}
}

func TestLoadPLY_Binary(t *testing.T) {
	tests := []struct {
		name    string
		normals bool
		colors  bool
	}{
		{"positions only", false, false},
		{"with normals", true, false},
		{"with colors", false, true},
		{"with normals and colors", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(t.TempDir(), "square.ply")
			createTestPLY(t, testFile, tt.normals, tt.colors)

			logger := &testLogger{}
			data, err := LoadPLY(testFile, logger)
			if err != nil {
				t.Fatalf("Failed to load PLY: %v", err)
			}
			checkSquare(t, data)

			if len(logger.lines) != 1 || !strings.Contains(logger.lines[0], "Loaded PLY") {
				t.Errorf("Expected one load summary line, got %v", logger.lines)
			}
		})
	}
}

func TestLoadPLY_NilLogger(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "square.ply")
	createTestPLY(t, testFile, false, false)

	data, err := LoadPLY(testFile, nil)
	if err != nil {
		t.Fatalf("Failed to load PLY: %v", err)
	}
	checkSquare(t, data)
}

func TestReadPLY_ASCII(t *testing.T) {
	input := `ply
format ascii 1.0
comment quad written as a single polygon
element vertex 4
property double x
property double y
property double z
property uchar red
element face 1
property list uchar int vertex_indices
end_header
0 0 0 10
1 0 0 20

1 1 0 30
0 1 0 40
4 0 1 2 3
`
	data, err := ReadPLY(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to read ASCII PLY: %v", err)
	}
	checkSquare(t, data)
}

func TestReadPLY_FanTriangulation(t *testing.T) {
	input := `ply
format ascii 1.0
element vertex 5
property float x
property float y
property float z
element face 1
property list uchar uint vertex_index
end_header
0 0 0
1 0 0
2 1 0
1 2 0
0 1 0
5 0 1 2 3 4
`
	data, err := ReadPLY(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to read PLY: %v", err)
	}

	expected := []int{0, 1, 2, 0, 2, 3, 0, 3, 4}
	if len(data.Faces) != len(expected) {
		t.Fatalf("Expected %d face indices, got %d", len(expected), len(data.Faces))
	}
	for i := range expected {
		if data.Faces[i] != expected[i] {
			t.Errorf("Face index %d: expected %d, got %d", i, expected[i], data.Faces[i])
		}
	}
}

func TestPLYData_Triangles(t *testing.T) {
	data := &PLYData{Vertices: squareVertices, Faces: []int{0, 1, 2, 0, 2, 3}}

	soup := data.Triangles()
	if len(soup) != 6 {
		t.Fatalf("Expected 6 vertices, got %d", len(soup))
	}
	if soup[4] != squareVertices[2] || soup[5] != squareVertices[3] {
		t.Errorf("Unexpected second triangle: %v", soup[3:])
	}
}

func TestReadPLY_Errors(t *testing.T) {
	header := "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
		"element face 1\nproperty list uchar int vertex_indices\nend_header\n"

	tests := []struct {
		name        string
		input       string
		unsupported bool
	}{
		{"missing magic", "plx\nformat ascii 1.0\nend_header\n", false},
		{"missing end_header", "ply\nformat ascii 1.0\nelement vertex 0\n", false},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nend_header\n", false},
		{"big endian", "ply\nformat binary_big_endian 1.0\nend_header\n", true},
		{"unknown element", "ply\nformat ascii 1.0\nelement edge 2\nend_header\n", true},
		{"missing z", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nend_header\n0 0\n", false},
		{"truncated body", header + "0 0 0\n1 0 0\n", false},
		{"index out of range", header + "0 0 0\n1 0 0\n0 1 0\n3 0 1 3\n", false},
		{"degenerate face", header + "0 0 0\n1 0 0\n0 1 0\n2 0 1\n", false},
		{"extra values", header + "0 0 0 7\n1 0 0\n0 1 0\n3 0 1 2\n", false},
		{"bad number", header + "0 zero 0\n1 0 0\n0 1 0\n3 0 1 2\n", false},
		{"huge vertex count", "ply\nformat ascii 1.0\nelement vertex 4000000000\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n", false},
		{"huge list count", header + "0 0 0\n1 0 0\n0 1 0\n4000000000 0 1 2\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPLY(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := errors.Is(err, core.ErrUnsupportedFeature); got != tt.unsupported {
				t.Errorf("errors.Is(err, ErrUnsupportedFeature) = %v, want %v (err: %v)", got, tt.unsupported, err)
			}
		})
	}
}

func TestReadPLY_BinaryHugeCounts(t *testing.T) {
	tests := []struct {
		name        string
		vertexCount int
		listCount   uint32
	}{
		{"vertex count", 4000000000, 3},
		{"face list count", 3, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			fmt.Fprintf(&buf, "ply\nformat binary_little_endian 1.0\nelement vertex %d\n", tt.vertexCount)
			buf.WriteString("property float x\nproperty float y\nproperty float z\n")
			buf.WriteString("element face 1\nproperty list uint int vertex_indices\nend_header\n")
			for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
				binary.Write(&buf, binary.LittleEndian, v)
			}
			binary.Write(&buf, binary.LittleEndian, tt.listCount)
			binary.Write(&buf, binary.LittleEndian, []int32{0, 1, 2})

			if _, err := ReadPLY(&buf); err == nil {
				t.Error("Expected error for counts larger than the data, got nil")
			}
		})
	}
}

func TestLoadPLY_NonExistentFile(t *testing.T) {
	_, err := LoadPLY(filepath.Join(t.TempDir(), "missing.ply"), nil)
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestParsePLYHeader(t *testing.T) {
	headerText := `ply
format binary_little_endian 1.0
comment Test PLY file
element vertex 1000
property float x
property float y
property float z
property float nx
property float ny
property float nz
element face 500
property list uchar int vertex_indices
end_header
`
	header, err := parsePLYHeader(bufio.NewReader(strings.NewReader(headerText)))
	if err != nil {
		t.Fatalf("Failed to parse header: %v", err)
	}

	if header.Format != "binary_little_endian" {
		t.Errorf("Expected format 'binary_little_endian', got '%s'", header.Format)
	}
	if header.Version != "1.0" {
		t.Errorf("Expected version '1.0', got '%s'", header.Version)
	}
	if header.VertexCount != 1000 {
		t.Errorf("Expected 1000 vertices, got %d", header.VertexCount)
	}
	if header.FaceCount != 500 {
		t.Errorf("Expected 500 faces, got %d", header.FaceCount)
	}
	if len(header.VertexProps) != 6 {
		t.Errorf("Expected 6 vertex properties, got %d", len(header.VertexProps))
	}
	if len(header.FaceProps) != 1 {
		t.Fatalf("Expected 1 face property, got %d", len(header.FaceProps))
	}

	faceProp := header.FaceProps[0]
	if !faceProp.IsList || faceProp.ListType != "uchar" || faceProp.DataType != "int" || faceProp.Name != "vertex_indices" {
		t.Errorf("Unexpected face property: %+v", faceProp)
	}
}
