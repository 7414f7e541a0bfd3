package validators

import "go.mongodb.org/mongo-driver/bson"

var HoldValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"property_id",
			"room_type_id",
			"check_in",
			"check_out",
			"quantity",
			"status",
			"expires_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"property_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"room_type_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"check_in": bson.M{
				"bsonType": "date",
			},

			"check_out": bson.M{
				"bsonType": "date",
			},

			"quantity": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  50,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"expired",
					"released",
				},
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"booking_id": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
