package convert

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"

	"github.com/Faultbox/sr-convert/pkg/formats"
	"github.com/Faultbox/sr-convert/pkg/scene"
)

// skinnedScene binds control point 3 of splitMesh to five bones.
func skinnedScene(weights ...float64) (*scene.Scene, *scene.Node) {
	sc := identityScene()
	var bones []*scene.Node
	for i := range weights {
		bones = append(bones, sc.Root.AddChild(scene.NewNode(fmt.Sprintf("bone_b%d", i+1), scene.AttributeSkeleton)))
	}
	mesh := sc.Root.AddChild(splitMesh())
	skin := scene.Skin{}
	for i, w := range weights {
		skin.Clusters = append(skin.Clusters, scene.Cluster{Link: bones[i], Indices: []int{3}, Weights: []float64{w}})
	}
	mesh.Mesh.Skins = []scene.Skin{skin}
	return sc, mesh
}

func extract(t *testing.T, sc *scene.Scene, mesh *scene.Node) (formats.Weights, *Skeleton) {
	t.Helper()
	cc := identityContext()
	h := Walk(sc, cc.Log)
	skel, err := BuildRig(cc, h)
	if err != nil {
		t.Fatalf("BuildRig: %v", err)
	}
	g, err := Consolidate(context.Background(), cc, mesh, nil)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	return ExtractWeights(mesh.Mesh, g, h, skel), skel
}

func TestExtractWeightsFollowsSplits(t *testing.T) {
	sc, mesh := skinnedScene(0.25, 0.75)
	weights, _ := extract(t, sc, mesh)

	// control point 3 became vertices 3 and 8
	for _, v := range []int{3, 8} {
		got := weights[v]
		if len(got) != 2 || got[0].Bone != "b1" || got[0].Weight != 0.25 || got[1].Bone != "b2" {
			t.Errorf("vertex %d influences = %+v", v, got)
		}
	}
	if _, ok := weights[0]; ok {
		t.Error("vertex 0 has no influences")
	}
}

func TestExtractWeightsTruncatesToFour(t *testing.T) {
	sc, mesh := skinnedScene(0.1, 0.2, 0.3, 0.2, 0.2)
	weights, skel := extract(t, sc, mesh)

	if len(weights[3]) != 5 {
		t.Fatalf("expected 5 collected influences, got %d", len(weights[3]))
	}
	slots, err := formats.WeightSlots(weights[3], skel.Rig.BoneIndex())
	if err != nil {
		t.Fatalf("WeightSlots: %v", err)
	}
	want := [8]int{26, 0, 51, 1, 77, 2, 51, 3}
	if slots != want {
		t.Errorf("slots = %v, want %v", slots, want)
	}
}

func TestExtractWeightsByteSum(t *testing.T) {
	source := []float64{0.4, 0.3, 0.2, 0.1}
	sc, mesh := skinnedScene(source...)
	weights, skel := extract(t, sc, mesh)

	slots, err := formats.WeightSlots(weights[3], skel.Rig.BoneIndex())
	if err != nil {
		t.Fatal(err)
	}
	var bytes, sum float64
	for i := 0; i < 4; i++ {
		bytes += float64(slots[i*2])
		sum += source[i]
	}
	if d := abs(bytes/255 - sum); d > 4.0/255 {
		t.Errorf("byte sum %v drifts from %v by %v", bytes/255, sum, d)
	}
}

func TestExtractWeightsLaterClusterOverwrites(t *testing.T) {
	sc, mesh := skinnedScene(0.5)
	bone := mesh.Mesh.Skins[0].Clusters[0].Link
	mesh.Mesh.Skins = append(mesh.Mesh.Skins, scene.Skin{Clusters: []scene.Cluster{
		{Link: bone, Indices: []int{3}, Weights: []float64{1}},
	}})
	weights, _ := extract(t, sc, mesh)

	got := weights[3]
	if len(got) != 1 || got[0].Weight != 1 {
		t.Errorf("influences = %+v, want one influence of weight 1", got)
	}
}

func TestExtractWeightsUnknownLink(t *testing.T) {
	sc, mesh := skinnedScene(1)
	loc := sc.Root.AddChild(scene.NewNode("locator", scene.AttributeNull))
	mesh.Mesh.Skins[0].Clusters[0].Link = loc
	weights, skel := extract(t, sc, mesh)

	if weights[3][0].Bone != "locator" {
		t.Fatalf("influence = %+v", weights[3][0])
	}
	_, err := formats.WeightSlots(weights[3], skel.Rig.BoneIndex())
	if !errors.Is(err, formats.ErrUnknownInfluence) {
		t.Errorf("expected ErrUnknownInfluence, got %v", err)
	}
}
