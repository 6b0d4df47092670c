package consumer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// CompileMessage compiles a .proto file and returns the named message. The file
// may import the well-known types (google/protobuf/struct.proto and friends)
// and siblings in its own directory. An empty name selects the first message.
//
// Field JSON names must line up with the envelope: device_id, ts, payload,
// ingested_at, correlation_id. ts may be a google.protobuf.Timestamp or an
// RFC 3339 string; payload is usually a google.protobuf.Struct.
func CompileMessage(ctx context.Context, path, name string) (protoreflect.MessageDescriptor, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			ImportPaths: []string{filepath.Dir(path)},
		}),
		SourceInfoMode: protocompile.SourceInfoNone,
	}

	files, err := compiler.Compile(ctx, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to compile proto %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files compiled from %s", path)
	}

	messages := files[0].Messages()
	if messages.Len() == 0 {
		return nil, fmt.Errorf("proto %s must define at least one message", path)
	}
	if name == "" {
		return messages.Get(0), nil
	}

	md := messages.ByName(protoreflect.Name(name))
	if md == nil {
		return nil, fmt.Errorf("message %q not found in %s", name, path)
	}
	return md, nil
}
