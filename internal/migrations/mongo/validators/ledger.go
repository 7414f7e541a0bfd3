package validators

import "go.mongodb.org/mongo-driver/bson"

var LedgerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"property_id",
			"room_type_id",
			"date",
			"total_rooms",
			"available_rooms",
			"reserved_rooms",
			"blocked_rooms",
			"overbooking_limit",
		},
		"additionalProperties": true,

		"properties": bson.M{
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

			"date": bson.M{
				"bsonType": "date",
			},

			"total_rooms": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  10000,
			},

			"available_rooms": bson.M{
				"bsonType": "int",
			},

			"reserved_rooms": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"blocked_rooms": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"overbooking_limit": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"min_stay": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  365,
			},

			"max_stay": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  365,
			},

			"closed_to_arrival": bson.M{
				"bsonType": "bool",
			},

			"closed_to_departure": bson.M{
				"bsonType": "bool",
			},

			"stop_sell": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
