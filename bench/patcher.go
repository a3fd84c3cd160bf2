package bench

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// ConfigArtifact names one architecture document: the read-only baseline
// shipped with the simulator and the derived variant the patch writes.
// The baseline is never written; the derived file is regenerated from
// (baseline, ParameterSet) on every apply and carries no other state.
type ConfigArtifact struct {
	Name         string
	BaselinePath string
	DerivedPath  string
}

// PatchClusterConfig merges the cluster-owned parameters (core count, L1
// size) onto the baseline cluster document and writes the derived file.
// Every field the parameters do not own keeps its baseline value.
//
// The simulated cluster carries one control core on top of the worker
// cores, so every core-count field is written as NumClusterCores+1.
func PatchClusterConfig(art ConfigArtifact, params ParameterSet) error {
	return applyPatch(art, func(doc map[string]any) error {
		nbPE := params.NumClusterCores + 1

		if _, ok := doc["nb_pe"]; !ok {
			return fmt.Errorf("%w: %s has no nb_pe", ErrPatchConflict, art.Name)
		}
		doc["nb_pe"] = nbPE

		icache, err := descend(art.Name, doc, "icache", "config")
		if err != nil {
			return err
		}
		icache["nb_cores"] = nbPE

		eventUnit, err := descend(art.Name, doc, "peripherals", "event_unit", "config")
		if err != nil {
			return err
		}
		eventUnit["nb_core"] = nbPE

		l1Mapping, err := descend(art.Name, doc, "l1", "mapping")
		if err != nil {
			return err
		}
		l1Mapping["size"] = hexSize(params.L1SizeKB * 1024)
		return nil
	})
}

// l2PrivateReserved is the slice of L2 taken by the two 32KB private banks;
// the shared region gets whatever remains of the configured size.
const l2PrivateReserved = 2 * 0x8000

// PatchSoCConfig merges the SoC-owned parameters (L2 size, bank count)
// onto the baseline SoC document and writes the derived file.
func PatchSoCConfig(art ConfigArtifact, params ParameterSet) error {
	return applyPatch(art, func(doc map[string]any) error {
		l2Bytes := params.L2SizeKB * 1024
		sharedBytes := l2Bytes - l2PrivateReserved
		if sharedBytes <= 0 {
			return fmt.Errorf("%w: l2_size_kb=%d leaves no shared L2 after %d bytes of private banks",
				ErrInvalidParameter, params.L2SizeKB, l2PrivateReserved)
		}

		l2, err := descend(art.Name, doc, "l2")
		if err != nil {
			return err
		}
		l2["size"] = hexSize(l2Bytes)

		sharedMapping, err := descend(art.Name, doc, "l2", "shared", "mapping")
		if err != nil {
			return err
		}
		sharedMapping["size"] = hexSize(sharedBytes)

		shared, err := descend(art.Name, doc, "l2", "shared")
		if err != nil {
			return err
		}
		shared["nb_banks"] = params.L2NumBanks
		return nil
	})
}

// applyPatch reads the baseline document, hands it to patch, and writes the
// result to the derived path. The derived output is deterministic for a
// given (baseline, ParameterSet): marshaling normalizes key order, so
// applying the same patch twice yields byte-identical files.
func applyPatch(art ConfigArtifact, patch func(map[string]any) error) error {
	data, err := os.ReadFile(art.BaselinePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrBaselineMissing, art.BaselinePath)
		}
		return fmt.Errorf("%w: reading %s: %v", ErrBaselineMissing, art.BaselinePath, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s is not valid JSON: %v", ErrPatchConflict, art.BaselinePath, err)
	}

	if err := patch(doc); err != nil {
		return err
	}

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, art.DerivedPath, err)
	}
	out = append(out, '\n')
	if err := os.WriteFile(art.DerivedPath, out, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, art.DerivedPath, err)
	}
	logrus.Debugf("Patched %s -> %s", art.BaselinePath, art.DerivedPath)
	return nil
}

// descend walks nested objects by key, failing with ErrPatchConflict when a
// step is missing or not an object: the merge has nowhere to attach.
func descend(name string, doc map[string]any, path ...string) (map[string]any, error) {
	cur := doc
	for i, key := range path {
		next, ok := cur[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no %v", ErrPatchConflict, name, path[:i+1])
		}
		obj, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s field %v is not an object", ErrPatchConflict, name, path[:i+1])
		}
		cur = obj
	}
	return cur, nil
}

// hexSize renders a byte count the way the architecture documents expect,
// e.g. 64KB -> "0x00010000".
func hexSize(bytes int) string {
	return fmt.Sprintf("0x%08x", bytes)
}
