package uid_test

import (
	"encoding/json"
	"fmt"

	"github.com/corbocal/idx/uid"
	"github.com/corbocal/idx/uid/intgen"
	"github.com/pkg/errors"
)

func ExampleParse() {
	id, err := uid.Parse(uid.Snowflake, "0000000000000000042")
	if err != nil {
		panic(err)
	}
	fmt.Println(id.Variant(), id)

	_, err = uid.Parse(uid.UUID4, "not-a-uuid")
	fmt.Println(errors.Is(err, uid.ErrFormat))
	// Output:
	// snowflake 0000000000000000042
	// true
}

func ExampleIdentifier_MarshalJSON() {
	id := uid.MustParse(uid.UUID4, "550e8400-e29b-41d4-a716-446655440000")
	buf, _ := json.Marshal(id)
	fmt.Println(string(buf))
	// Output:
	// {"value":"550e8400-e29b-41d4-a716-446655440000","type":"uuid-v4"}
}

func ExampleNewFactory() {
	clusterID, workerID := int64(2), int64(5)
	snowflake, err := intgen.NewSnowflakeGeneratorWithOptions(&intgen.SnowflakeOptions{
		ClusterID: &clusterID,
		WorkerID:  &workerID,
	})
	if err != nil {
		panic(err)
	}

	factory := uid.NewFactory(map[uid.Variant]uid.Generator{
		uid.Snowflake: uid.IntPayload(snowflake),
	})

	id, err := factory.Generate(uid.Snowflake)
	if err != nil {
		panic(err)
	}
	n, _ := id.Int64()
	parts := snowflake.Decompose(n)
	fmt.Println(len(id.String()), parts.ClusterID, parts.WorkerID)
	// Output:
	// 19 2 5
}
