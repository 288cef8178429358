// Package schema models collection schemas and columnar field data for a
// Milvus-compatible vector database and converts them to and from the
// protobuf messages exchanged over gRPC.
//
// Everything in this package is pure: values are built once, validated
// eagerly, and safe to share between goroutines.
//
// # Type model
//
// DataType is a closed enumeration whose numeric values are the server's
// wire codes (Int64 = 5, VarChar = 21, FloatVector = 101, ...). Decoding an
// unknown code fails with ErrMalformedResponse.
//
// # Schemas
//
//	id, _ := schema.NewField("book_id", schema.DataTypeInt64, schema.WithPrimaryKey(), schema.WithAutoID())
//	name, _ := schema.NewField("book_name", schema.DataTypeVarChar, schema.WithMaxLength(200))
//	intro, _ := schema.NewField("book_intro", schema.DataTypeFloatVector, schema.WithDimension(1536))
//
//	books, err := schema.NewCollectionSchema("books", []*schema.FieldSchema{id, name, intro})
//	if errors.Is(err, schema.ErrNoPrimaryKey) {
//	    // ...
//	}
//
// # Columns
//
// Values travel column-wise. Scalar columns hold one value per row; vector
// columns hold a flat row-major buffer that must be a whole number of rows.
//
//	names := schema.NewFieldData("book_name", schema.DataTypeVarChar,
//	    schema.NewScalarColumn([]string{"a", "b"}))
//	vecs, _ := schema.NewFloatVectorColumnFromRows(embeddings)
//	intros := schema.NewFieldData("book_intro", schema.DataTypeFloatVector, vecs)
//
//	wire, rows, err := books.BindColumns(names, intros)
package schema
