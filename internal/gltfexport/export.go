// Package gltfexport writes a posed skeleton frame as a glTF node hierarchy.
package gltfexport

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"bvh-pose-renderer/internal/skeleton"
)

type Options struct {
	// TRS stores translation and rotation instead of a full local matrix.
	TRS bool
}

// Build creates a document with one node per joint. Node i is joint i;
// frame must already be recalculated. The skin's inverse bind matrices
// make this frame the bind pose.
func Build(sk *skeleton.Skeleton, frame int, opts Options) (*gltf.Document, error) {
	root := sk.RootJoint()
	if root == nil {
		return nil, errors.Wrap(skeleton.ErrStructure, "no root joint")
	}

	doc := gltf.NewDocument()
	joints := sk.Joints()
	skinJoints := make([]uint32, len(joints))
	inverseBind := make([][4][4]float32, len(joints))

	for i, j := range joints {
		local, err := j.LocalTransform(frame)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q", j.Name())
		}
		global, err := j.GlobalTransform(frame)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q", j.Name())
		}

		node := &gltf.Node{Name: j.Name()}
		gl := local.GL()
		if opts.TRS {
			q := mgl32.Mat4ToQuat(gl).Normalize()
			node.Translation = gl.Col(3).Vec3()
			node.Rotation = q.V.Vec4(q.W)
		} else {
			node.Matrix = gl
		}
		for _, c := range j.Children() {
			node.Children = append(node.Children, uint32(c))
		}
		doc.Nodes = append(doc.Nodes, node)

		skinJoints[i] = uint32(i)
		inv := global.GL().Inv()
		for k := 0; k < 16; k++ {
			inverseBind[i][k/4][k%4] = inv[k]
		}
	}

	ibm := modeler.WriteAccessor(doc, gltf.TargetNone, inverseBind)
	doc.Skins = append(doc.Skins, &gltf.Skin{
		Name:                root.Name(),
		Skeleton:            gltf.Index(uint32(root.Index())),
		Joints:              skinJoints,
		InverseBindMatrices: gltf.Index(ibm),
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(root.Index()))
	return doc, nil
}

// Encode writes doc as .glb when binary is set and as JSON glTF otherwise.
func Encode(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		// JSON output has no BIN chunk; inline buffers as data URIs.
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrapf(err, "Failed to encode gltf")
	}
	return nil
}

// WriteFile builds frame and saves it to path; a .glb extension selects binary output.
func WriteFile(path string, sk *skeleton.Skeleton, frame int, opts Options) error {
	doc, err := Build(sk, frame, opts)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create %s", path)
	}
	if err := Encode(f, doc, strings.EqualFold(filepath.Ext(path), ".glb")); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
