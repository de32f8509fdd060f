// ABOUTME: Helpers that project google.protobuf.Struct responses onto robot types.
// ABOUTME: Missing fields decode to zero values; only absent payloads are errors.

package robot

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

func str(f map[string]*structpb.Value, key string) string {
	return f[key].GetStringValue()
}

func num(f map[string]*structpb.Value, key string) float64 {
	return f[key].GetNumberValue()
}

func list(s *structpb.Struct, key string) []*structpb.Value {
	return s.GetFields()[key].GetListValue().GetValues()
}

func nums(s *structpb.Struct, key string) []float64 {
	values := list(s, key)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.GetNumberValue()
	}
	return out
}

// decodeResult reads the nested "result" object every command response carries.
func decodeResult(method string, s *structpb.Struct) (Result, error) {
	v, ok := s.GetFields()["result"]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", method, ErrEmptyResponse)
	}
	f := v.GetStructValue().GetFields()
	return Result{
		Success: f["success"].GetBoolValue(),
		Message: str(f, "message"),
	}, nil
}

func decodeCommand(s *structpb.Struct) Command {
	f := s.GetFields()["command"].GetStructValue().GetFields()
	return Command{Type: str(f, "type")}
}

func decodePose(v *structpb.Value) Pose {
	f := v.GetStructValue().GetFields()
	return Pose{X: num(f, "x"), Y: num(f, "y"), Yaw: num(f, "yaw")}
}

func decodeVector3(v *structpb.Value) Vector3 {
	f := v.GetStructValue().GetFields()
	return Vector3{X: num(f, "x"), Y: num(f, "y"), Z: num(f, "z")}
}

func decodeQuaternion(v *structpb.Value) Quaternion {
	f := v.GetStructValue().GetFields()
	return Quaternion{X: num(f, "x"), Y: num(f, "y"), Z: num(f, "z"), W: num(f, "w")}
}

// decodeImage reads a base64 "data" field and its "format" tag.
func decodeImage(method string, s *structpb.Struct) (Image, error) {
	f := s.GetFields()
	encoded := str(f, "data")
	if encoded == "" {
		return Image{}, fmt.Errorf("%s: %w", method, ErrEmptyResponse)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Image{}, fmt.Errorf("%s: decoding image data: %w", method, err)
	}
	return Image{Data: data, Format: str(f, "format")}, nil
}
