package region

import (
	"bytes"

	"github.com/StoreStation/vibecraft/internal/nbt"
)

func readNBT(raw []byte) (nbt.Compound, error) {
	return nbt.Read(bytes.NewReader(raw))
}

func writeNBT(root nbt.Compound) ([]byte, error) {
	var buf bytes.Buffer
	if err := nbt.Write(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
