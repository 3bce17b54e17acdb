// Package render draws built trees with graphviz.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ar90n/kdtree"
	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

var ErrUnknownFormat = errors.New("unknown render format")

// FormatFromPath maps a file extension to a graphviz output format.
func FormatFromPath(path string) (graphviz.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return graphviz.XDOT, nil
	case ".svg":
		return graphviz.SVG, nil
	case ".png":
		return graphviz.PNG, nil
	case ".jpg", ".jpeg":
		return graphviz.JPG, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", path)
	}
}

func nodeName(id uint) string {
	return fmt.Sprintf("n%d", id)
}

func nodeLabel[T linalg.Number](tree *kdtree.Tree[T], node kdtree.Node[T]) string {
	if node.IsLeaf() {
		return fmt.Sprintf("#%d %v", node.Index, tree.Point(int(node.Index)))
	}
	return fmt.Sprintf("x[%d] < %v", node.Hyperplane.Axis, node.Hyperplane.Value)
}

func buildGraph[T linalg.Number](graph *cgraph.Graph, tree *kdtree.Tree[T]) error {
	if tree.IsEmpty() {
		n, err := graph.CreateNode("empty")
		if err != nil {
			return err
		}
		n.SetLabel("EMPTY TREE").SetShape(cgraph.PlainTextShape)
		return nil
	}

	nodes := make([]*cgraph.Node, tree.NodeCount())
	var err error
	tree.Walk(func(id uint, node kdtree.Node[T], _ uint) {
		if err != nil {
			return
		}
		var n *cgraph.Node
		if n, err = graph.CreateNode(nodeName(id)); err != nil {
			return
		}
		n.SetLabel(nodeLabel(tree, node))
		if node.IsLeaf() {
			n.SetShape(cgraph.BoxShape)
		}
		nodes[id] = n
	})
	if err != nil {
		return err
	}

	tree.Walk(func(id uint, node kdtree.Node[T], _ uint) {
		if err != nil || node.IsLeaf() {
			return
		}
		var e *cgraph.Edge
		if e, err = graph.CreateEdge(nodeName(id)+"l", nodes[id], nodes[node.Left]); err != nil {
			return
		}
		e.SetLabel("yes")
		if e, err = graph.CreateEdge(nodeName(id)+"r", nodes[id], nodes[node.Right]); err != nil {
			return
		}
		e.SetLabel("no")
	})

	return err
}

// Render writes tree to w in format.
func Render[T linalg.Number](w io.Writer, tree *kdtree.Tree[T], format graphviz.Format) error {
	g := graphviz.New()
	defer g.Close()

	graph, err := g.Graph()
	if err != nil {
		return errors.Wrap(err, "create graph")
	}
	defer graph.Close()

	if err := buildGraph(graph, tree); err != nil {
		return errors.Wrap(err, "build graph")
	}
	if err := g.Render(graph, format, w); err != nil {
		return errors.Wrapf(err, "render %s", format)
	}

	return nil
}

// File renders tree into path, choosing the format from its extension.
func File[T linalg.Number](path string, tree *kdtree.Tree[T]) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	if err := Render(f, tree, format); err != nil {
		return err
	}
	return f.Close()
}
